package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Kind distinguishes ordinary steps from loop markers.
type Kind int

const (
	KindStep Kind = iota
	KindRepeat
	KindEndRepeat
)

func (k Kind) String() string {
	switch k {
	case KindRepeat:
		return "repeat"
	case KindEndRepeat:
		return "end_repeat"
	default:
		return "step"
	}
}

// Command is one line of a reduced protocol.
type Command struct {
	// Line is the 1-based position in the reduced protocol.
	Line int
	Kind Kind
	// Name is the canonical command for KindStep entries.
	Name instrument.Command
	// Payload holds the folded parameter lines, separated by ';'.
	Payload string
	// Times is the iteration count of a KindRepeat entry.
	Times int
	// Steps is the number of repeated steps of a KindEndRepeat entry.
	Steps int
}

// Text returns the command field as it appears in the reduced protocol.
func (c Command) Text() string {
	switch c.Kind {
	case KindRepeat:
		return fmt.Sprintf("Repeat %d times", c.Times)
	case KindEndRepeat:
		return fmt.Sprintf("End Repeat %d steps", c.Steps)
	default:
		return string(c.Name)
	}
}

// String renders the command as a reduced protocol line.
func (c Command) String() string {
	if c.Kind != KindStep {
		return fmt.Sprintf("[%d : %s :]", c.Line, c.Text())
	}
	return fmt.Sprintf("[%d : %s : %s]", c.Line, c.Text(), c.Payload)
}

// ParseCommand reads one reduced protocol line back into a Command.
func ParseCommand(line string) (Command, error) {
	entry := strings.TrimSpace(line)
	if !strings.HasPrefix(entry, "[") || !strings.HasSuffix(entry, "]") {
		return Command{}, faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol", "line %q is not bracketed", entry)
	}
	fields := strings.SplitN(entry[1:len(entry)-1], ":", 3)
	if len(fields) < 2 {
		return Command{}, faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol", "line %q has no command field", entry)
	}
	number, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Command{}, faults.Wrap(faults.ErrMalformedProtocol, "", "reduced protocol", fmt.Sprintf("line %q has no line number", entry), err)
	}
	cmd := Command{Line: number, Kind: KindStep}
	text := strings.TrimSpace(fields[1])
	words := strings.Fields(text)
	switch {
	case len(words) > 0 && words[0] == string(instrument.RepeatKeyword):
		if len(words) < 2 {
			return Command{}, faults.Errorf(faults.ErrMalformedProtocol, "reduced protocol", "repeat line %q has no count", entry)
		}
		times, err := strconv.Atoi(words[1])
		if err != nil {
			return Command{}, faults.Wrap(faults.ErrMalformedProtocol, "", "reduced protocol", fmt.Sprintf("repeat line %q", entry), err)
		}
		cmd.Kind = KindRepeat
		cmd.Times = times
	case len(words) > 2 && words[0] == "End" && words[1] == string(instrument.RepeatKeyword):
		steps, err := strconv.Atoi(words[2])
		if err != nil {
			return Command{}, faults.Wrap(faults.ErrMalformedProtocol, "", "reduced protocol", fmt.Sprintf("end repeat line %q", entry), err)
		}
		cmd.Kind = KindEndRepeat
		cmd.Steps = steps
	default:
		cmd.Name = instrument.Command(text)
		if len(fields) == 3 {
			cmd.Payload = strings.TrimSpace(fields[2])
		}
	}
	return cmd, nil
}
