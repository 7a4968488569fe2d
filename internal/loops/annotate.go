package loops

import (
	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
	"cyclerprep/internal/protocol"
	"cyclerprep/internal/state"
)

// Annotation holds the derived columns, one entry per kept data row.
type Annotation struct {
	Lines []int
	Loops []int
}

// Unassigned reports whether the annotation was skipped.
func (a Annotation) Unassigned() bool {
	return len(a.Lines) > 0 && a.Lines[0] == instrument.Unassigned
}

// Annotate walks the blocks of the data against red. When viable is false
// every value is instrument.Unassigned.
func Annotate(red protocol.Reduced, viable bool, stepIDs []int, codes []state.Code) (Annotation, error) {
	n := len(codes)
	ann := Annotation{Lines: make([]int, n), Loops: make([]int, n)}
	if !viable {
		fill(ann.Lines, instrument.Unassigned)
		fill(ann.Loops, instrument.Unassigned)
		return ann, nil
	}
	if len(stepIDs) != n {
		return Annotation{}, faults.Errorf(faults.ErrInvariant, "annotate",
			"%d step identifiers for %d state codes", len(stepIDs), n)
	}

	a := &annotator{cmds: red.Commands, prevStep: -1}
	for _, b := range Blocks(codes) {
		line, loop, err := a.step(stepIDs[b.First])
		if err != nil {
			return Annotation{}, err
		}
		for i := b.First; i <= b.Last; i++ {
			ann.Lines[i] = line
			ann.Loops[i] = loop
		}
	}
	return ann, nil
}

type mode int

const (
	modeFlat mode = iota
	modeRepeat
)

// repeatState exists only while the annotator is inside a repeat loop.
type repeatState struct {
	// firstLine is the protocol line of the first command of the body.
	firstLine int
	times     int
	// body is filled during the first iteration and replayed afterwards.
	body []instrument.Command
	// steps holds the step identifier each body command produced in the first
	// iteration. Replayed blocks must carry the same identifier.
	steps     []int
	replaying bool
	iteration int
	// index is the position inside the body during replay.
	index int
}

type annotator struct {
	cmds   []protocol.Command
	cursor int
	mode   mode
	rep    *repeatState

	// loop counts every iteration started so far, across all repeats.
	loop int

	prevStep int
	prevLine int
	prevLoop int
}

// step assigns the line and loop numbers of one block.
func (a *annotator) step(stepID int) (int, int, error) {
	if instrument.MergesWith(a.prevStep, stepID) {
		a.prevStep = -1
		return a.prevLine, a.prevLoop, nil
	}

	line, loop, err := a.next(stepID)
	if err != nil {
		return 0, 0, err
	}
	a.prevStep = stepID
	a.prevLine, a.prevLoop = line, loop
	return line, loop, nil
}

func (a *annotator) next(stepID int) (int, int, error) {
	for {
		if a.mode == modeRepeat && a.rep.replaying {
			return a.replay(stepID)
		}
		if a.cursor >= len(a.cmds) {
			return 0, 0, faults.Errorf(faults.ErrUnexpectedCommand, "annotate",
				"data block with step %d after the last protocol command", stepID)
		}
		cmd := a.cmds[a.cursor]
		switch {
		case cmd.Kind == protocol.KindRepeat:
			if a.mode == modeRepeat {
				return 0, 0, faults.Errorf(faults.ErrNestedRepeat, "annotate", "repeat at line %d inside another repeat", cmd.Line)
			}
			a.enterRepeat(cmd)
		case cmd.Kind == protocol.KindEndRepeat:
			if err := a.closeFirstIteration(cmd); err != nil {
				return 0, 0, err
			}
		case cmd.Kind == protocol.KindStep && instrument.Known(cmd.Name):
			a.cursor++
			if a.mode == modeRepeat {
				if !instrument.AcceptsStep(cmd.Name, stepID) {
					return 0, 0, faults.Errorf(faults.ErrRepeatLength, "annotate",
						"first iteration ended after %d repeated steps (step %d cannot come from %s)",
						len(a.rep.body), stepID, cmd.Name)
				}
				a.rep.body = append(a.rep.body, cmd.Name)
				a.rep.steps = append(a.rep.steps, stepID)
				return cmd.Line, a.loop, nil
			}
			return cmd.Line, 0, nil
		default:
			return 0, 0, faults.Errorf(faults.ErrUnexpectedCommand, "annotate", "command %q at line %d", cmd.Text(), cmd.Line)
		}
	}
}

func (a *annotator) enterRepeat(cmd protocol.Command) {
	a.cursor++
	a.loop++
	a.mode = modeRepeat
	a.rep = &repeatState{
		firstLine: cmd.Line + 1,
		times:     cmd.Times,
		iteration: 1,
	}
}

// closeFirstIteration handles reaching EndRepeat after the body was walked
// once. Later iterations are replayed without moving the cursor.
func (a *annotator) closeFirstIteration(cmd protocol.Command) error {
	if a.mode != modeRepeat {
		return faults.Errorf(faults.ErrUnexpectedCommand, "annotate", "end repeat at line %d outside a repeat", cmd.Line)
	}
	if len(a.rep.body) != cmd.Steps {
		return faults.Errorf(faults.ErrRepeatLength, "annotate",
			"repeat declares %d steps, first iteration has %d", cmd.Steps, len(a.rep.body))
	}
	if a.rep.iteration >= a.rep.times || len(a.rep.body) == 0 {
		a.exitRepeat()
		return nil
	}
	a.rep.replaying = true
	a.rep.iteration++
	a.rep.index = 0
	a.loop++
	return nil
}

func (a *annotator) replay(stepID int) (int, int, error) {
	r := a.rep
	if want := r.steps[r.index]; stepID != want {
		return 0, 0, faults.Errorf(faults.ErrRepeatLength, "annotate",
			"iteration %d of %d ended after %d of %d repeated steps (step %d where %s produced step %d)",
			r.iteration, r.times, r.index, len(r.body), stepID, r.body[r.index], want)
	}
	line, loop := r.firstLine+r.index, a.loop

	r.index++
	if r.index == len(r.body) {
		if r.iteration == r.times {
			a.exitRepeat()
		} else {
			r.iteration++
			r.index = 0
			a.loop++
		}
	}
	return line, loop, nil
}

func (a *annotator) exitRepeat() {
	a.cursor++
	a.mode = modeFlat
	a.rep = nil
}

func fill(values []int, v int) {
	for i := range values {
		values[i] = v
	}
}
