package protocol

import (
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Reduced is a reduced protocol: one command per line, repeat loops bounded
// by explicit Repeat and EndRepeat entries.
type Reduced struct {
	Commands []Command
	// Embedded is true when the protocol was read from the header rather
	// than computed.
	Embedded bool
}

// Lines renders the protocol including its begin and end markers.
func (r Reduced) Lines() []string {
	lines := make([]string, 0, len(r.Commands)+2)
	lines = append(lines, instrument.MarkerReducedProtocol)
	for _, c := range r.Commands {
		lines = append(lines, c.String())
	}
	return append(lines, instrument.MarkerEndReducedProtocol)
}

// ImpliedSteps counts the logical steps the protocol describes, counting
// every command inside a repeat once per iteration.
func (r Reduced) ImpliedSteps() int {
	total, times := 0, 0
	for _, c := range r.Commands {
		switch c.Kind {
		case KindRepeat:
			times = c.Times
		case KindEndRepeat:
			times = 0
		default:
			if times > 0 {
				total += times
			} else {
				total++
			}
		}
	}
	return total
}

// Validate checks the loop structure: no nesting, every Repeat closed and
// every EndRepeat opened.
func (r Reduced) Validate() error {
	open := false
	for _, c := range r.Commands {
		switch c.Kind {
		case KindRepeat:
			if open {
				return faults.Errorf(faults.ErrNestedRepeat, "reduced protocol", "repeat at line %d opens inside another repeat", c.Line)
			}
			open = true
		case KindEndRepeat:
			if !open {
				return faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol", "end repeat at line %d without repeat", c.Line)
			}
			open = false
		}
	}
	if open {
		return faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol", "repeat never closed")
	}
	return nil
}

// Parse reads the lines between the reduced protocol markers.
func Parse(lines []string) (Reduced, error) {
	red := Reduced{Embedded: true}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			return Reduced{}, err
		}
		red.Commands = append(red.Commands, cmd)
	}
	if err := red.Validate(); err != nil {
		return Reduced{}, err
	}
	return red, nil
}

// FindEmbedded looks for a reduced protocol block in the header. It reports
// false when the header has none. A block that is not terminated before
// [Data] (or the end of the header) is an error.
func FindEmbedded(header []string) (Reduced, bool, error) {
	begin := -1
	for i, line := range header {
		entry := strings.TrimSpace(line)
		if entry == instrument.MarkerData {
			break
		}
		if entry == instrument.MarkerReducedProtocol {
			begin = i
			break
		}
	}
	if begin < 0 {
		return Reduced{}, false, nil
	}
	for i := begin + 1; i < len(header); i++ {
		entry := strings.TrimSpace(header[i])
		if entry == instrument.MarkerData {
			break
		}
		if entry == instrument.MarkerEndReducedProtocol {
			red, err := Parse(header[begin+1 : i])
			if err != nil {
				return Reduced{}, true, err
			}
			return red, true, nil
		}
	}
	return Reduced{}, true, faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol",
		"line %s not found before %s", instrument.MarkerEndReducedProtocol, instrument.MarkerData)
}
