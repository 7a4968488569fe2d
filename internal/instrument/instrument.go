package instrument

import (
	"slices"
	"strings"
)

// Epsilon is the step time (hours) below which a one-sample step counts as a
// genuine single measurement rather than a duplicated sample.
const Epsilon = 1.0e-5

// Unassigned marks protocol line and loop values that could not be derived.
const Unassigned = -999

// Column names in Novonix exports and the columns appended by preparation.
const (
	ColumnStep     = "Step Number"
	ColumnStepTime = "Step Time (h)"
	ColumnCapacity = "Capacity (Ah)"

	ColumnState = "State (0=Start 1=Regular 2=End -1=Single Measurement)"
	ColumnLine  = "Protocol Line (it refers to the reduced protocol)"
	ColumnLoop  = "Loop number"
)

// Header markers.
const (
	MarkerSummary             = "[Summary]"
	MarkerProtocol            = "[Protocol]"
	MarkerEndProtocol         = "[End Protocol]"
	MarkerData                = "[Data]"
	MarkerReducedProtocol     = "[Reduced Protocol]"
	MarkerEndReducedProtocol  = "[End Reduced Protocol]"
	headerInstrumentSignature = "Novonix"
)

// Signature returns the keyword every export names in its header.
func Signature() string { return headerInstrumentSignature }

// Novonix step identifiers.
const (
	StepOpenCircuit = 0
	StepCCCharge    = 1
	// StepCCDischarge is also reported as 1 by some firmware revisions.
	StepCCDischarge = 2
	StepCCCVCharge  = 7
	StepCVCharge    = 8
	StepCCCVDisch   = 9
	StepCVDischarge = 10
)

// Command is one entry of the canonical protocol vocabulary.
type Command string

const (
	OpenCircuitStorage  Command = "Open_circuit_storage"
	ConstantCharge      Command = "Constant_current_charge"
	ConstantDischarge   Command = "Constant_current_discharge"
	CCCVCharge          Command = "CC-CV_charge"
	CCCVDischarge       Command = "CC-CV_discharge"
	RepeatKeyword       Command = "Repeat"
	incrementCounter    Command = "Increment the cycle counter"
	incrementCounterAlt Command = "Increment cycle counter"
)

var commands = []Command{
	OpenCircuitStorage,
	ConstantCharge,
	ConstantDischarge,
	CCCVCharge,
	CCCVDischarge,
}

// stepValues lists the step identifiers a data block may carry when it was
// produced by a command. CC-CV commands produce a CC block followed by a CV
// block, so both are accepted.
var stepValues = map[Command][]int{
	OpenCircuitStorage: {StepOpenCircuit},
	ConstantCharge:     {StepCCCharge},
	ConstantDischarge:  {StepCCDischarge, StepCCCharge},
	CCCVCharge:         {StepCCCVCharge, StepCVCharge},
	CCCVDischarge:      {StepCCCVDisch, StepCVDischarge},
}

var ignored = toSet(
	"End storage",
	"End charge",
	"End discharge",
	"End repeat",
	string(incrementCounter),
	string(incrementCounterAlt),
	"End increment",
	"Trip conditions",
	"End trip conditions",
	"Save conditions",
	"End save conditions",
	"Operating limits",
	"End operating limits",
	"Emergency limits",
	"End emergency limits",
)

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Commands returns the canonical (underscore) vocabulary in protocol order.
func Commands() []Command {
	return slices.Clone(commands)
}

// Spaced returns the command as written by exports using the space syntax.
func (c Command) Spaced() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// canonical converts either spelling to the underscore form.
func canonical(name string) Command {
	return Command(strings.ReplaceAll(name, " ", "_"))
}

// Known reports whether name (in canonical spelling) is a vocabulary command.
func Known(name Command) bool {
	_, ok := stepValues[name]
	return ok
}

// AcceptsStep reports whether a block with the given step identifier can
// have been produced by cmd.
func AcceptsStep(cmd Command, step int) bool {
	return slices.Contains(stepValues[cmd], step)
}

// Ignored reports whether a subordinate header line carries no information
// worth folding into the reduced protocol.
func Ignored(line string) bool {
	_, ok := ignored[line]
	return ok
}

// IsIncrement reports whether a header entry is the counter-only directive
// found inside repeat blocks, in either spelling.
func IsIncrement(entry string) bool {
	switch canonical(entry) {
	case canonical(string(incrementCounter)), canonical(string(incrementCounterAlt)):
		return true
	}
	return false
}

// isVoltagePhase reports whether step is the constant-voltage half of a
// CC-CV step.
func isVoltagePhase(step int) bool {
	return step == StepCVCharge || step == StepCVDischarge
}

// MergesWith reports whether a block with step follows a block with prev as
// the second phase of the same CC-CV step.
func MergesWith(prev, step int) bool {
	switch {
	case !isVoltagePhase(step):
		return false
	case step == StepCVCharge:
		return prev == StepCCCVCharge
	default:
		return prev == StepCCCVDisch
	}
}

var limitBlocks = map[string]string{
	"operating limits": "End operating limits",
	"emergency limits": "End emergency limits",
}

// LimitsEnd reports whether entry opens an operating or emergency limits
// block and, if so, the entry that closes it. Limit blocks hold safety
// thresholds, not protocol steps.
func LimitsEnd(entry string) (string, bool) {
	end, ok := limitBlocks[strings.ToLower(Command(entry).Spaced())]
	return end, ok
}

// SameEntry compares two header entries ignoring case and the underscore or
// space spelling.
func SameEntry(a, b string) bool {
	return strings.EqualFold(Command(a).Spaced(), Command(b).Spaced())
}
