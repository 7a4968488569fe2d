// Package state labels every data row with its position inside the
// measurement step that produced it.
package state

import (
	"fmt"
	"strconv"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Code is the lifecycle label of one data row.
type Code int

const (
	Start   Code = 0
	Regular Code = 1
	End     Code = 2
	Single  Code = -1
	// Ignored marks a duplicated sample produced by an instrument bug. Rows
	// with this code never reach the output.
	Ignored Code = -99
)

var codeNames = map[Code]string{
	Start:   "start",
	Regular: "regular",
	End:     "end",
	Single:  "single",
	Ignored: "ignored",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}

// Opens reports whether c begins a block of rows.
func (c Code) Opens() bool { return c == Start || c == Single }

// Closes reports whether c ends a block of rows.
func (c Code) Closes() bool { return c == End || c == Single }

// Parse converts a state column value back into a Code.
func Parse(value string) (Code, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse state %q: %w", value, err)
	}
	c := Code(n)
	if _, ok := codeNames[c]; !ok || c == Ignored {
		return 0, fmt.Errorf("parse state %q: unknown code", value)
	}
	return c, nil
}

const (
	initialStep = -99
	initialTime = 99.0
)

// Result holds the classification of every input row.
type Result struct {
	// Codes has one entry per input row, Ignored rows included.
	Codes []Code
	// Ignored lists the indexes of rows labelled Ignored, ascending.
	Ignored []int
}

// Kept returns the codes of the rows that survive, in order.
func (r Result) Kept() []Code {
	out := make([]Code, 0, len(r.Codes)-len(r.Ignored))
	for _, c := range r.Codes {
		if c != Ignored {
			out = append(out, c)
		}
	}
	return out
}

// Classify assigns a Code to every row from the step identifiers and the
// step-local elapsed times. Both slices must have the same length.
func Classify(stepIDs []int, stepTimes []float64) (Result, error) {
	if len(stepIDs) != len(stepTimes) {
		return Result{}, faults.Errorf(faults.ErrInvariant, "state",
			"step columns differ in length: %d step ids, %d step times", len(stepIDs), len(stepTimes))
	}
	if len(stepIDs) == 0 {
		return Result{}, faults.Errorf(faults.ErrInvariant, "state", "no data rows")
	}

	codes := make([]Code, len(stepIDs))
	lastStep := initialStep
	lastTime := initialTime
	for i := range stepIDs {
		if stepIDs[i] == lastStep && stepTimes[i] > lastTime {
			codes[i] = Regular
		} else {
			codes[i] = Start
			if i > 0 {
				if err := revise(codes[:i], lastTime); err != nil {
					return Result{}, err
				}
			}
		}
		lastStep = stepIDs[i]
		lastTime = stepTimes[i]
	}
	codes[len(codes)-1] = End

	res := Result{Codes: codes}
	for i, c := range codes {
		if c == Ignored {
			res.Ignored = append(res.Ignored, i)
		}
	}
	if err := Validate(res.Kept()); err != nil {
		return Result{}, err
	}
	return res, nil
}

// revise relabels the look-back window once a new step begins. prev holds
// the codes emitted so far; only its last two entries may change.
func revise(prev []Code, lastTime float64) error {
	last := len(prev) - 1
	switch prev[last] {
	case Start:
		if lastTime < instrument.Epsilon {
			prev[last] = Single
			return nil
		}
		prev[last] = Ignored
		if last > 0 && prev[last-1] == Single {
			// two single measurements in a row
			prev[last-1] = Ignored
		}
	case Regular:
		prev[last] = End
	default:
		return faults.Errorf(faults.ErrInvariant, "state",
			"unexpected state %s before row %d", prev[last], last+2)
	}
	return nil
}

// Validate checks the invariants of a classified (Ignored-free) sequence:
// it opens with Start, closes with End and has as many Start codes as End
// codes.
func Validate(codes []Code) error {
	if len(codes) == 0 {
		return faults.Errorf(faults.ErrInvariant, "state", "no data rows")
	}
	if codes[0] != Start || codes[len(codes)-1] != End {
		return faults.Errorf(faults.ErrInvariant, "state",
			"state column not properly populated: first=%s last=%s", codes[0], codes[len(codes)-1])
	}
	starts, ends := 0, 0
	for _, c := range codes {
		switch c {
		case Start:
			starts++
		case End:
			ends++
		case Ignored:
			return faults.Errorf(faults.ErrInvariant, "state", "ignored row left in sequence")
		}
	}
	if starts != ends {
		return faults.Errorf(faults.ErrInvariant, "state",
			"mismatch between Start (%d) and End (%d) counts", starts, ends)
	}
	return nil
}
