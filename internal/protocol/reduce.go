package protocol

import (
	"fmt"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
	"cyclerprep/internal/state"
)

// Result is the outcome of reducing the protocol of one file.
type Result struct {
	Protocol Reduced
	Format   Format
	// Viable is false when the protocol implies fewer logical steps than
	// the data holds; annotation is skipped in that case.
	Viable bool
	// Implied is the number of logical steps the protocol describes.
	Implied int
	// Unique is the number of logical steps measured in the data.
	Unique int
}

// Surplus reports whether the protocol declares steps that were never
// measured, for example because a loop was stopped early.
func (r Result) Surplus() bool { return r.Implied > r.Unique }

// Reduce builds the reduced protocol for a file. header holds the header
// lines up to [Data]; codes and stepIDs describe the kept data rows. An
// embedded reduced protocol is returned as-is and trusted to be viable.
func Reduce(header []string, codes []state.Code, stepIDs []int) (Result, error) {
	unique := UniqueSteps(codes, stepIDs)

	embedded, found, err := FindEmbedded(header)
	if err != nil {
		return Result{}, err
	}
	if found {
		return Result{
			Protocol: embedded,
			Viable:   true,
			Implied:  embedded.ImpliedSteps(),
			Unique:   unique,
		}, nil
	}

	red, format, implied, err := reduceHeader(header)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Protocol: red,
		Format:   format,
		Viable:   implied >= unique,
		Implied:  implied,
		Unique:   unique,
	}, nil
}

// reducer carries the state of one pass over the protocol block.
type reducer struct {
	format  Format
	out     []Command
	pending *Command
	// subs counts folded parameters of the pending command.
	subs int

	inRepeat bool
	times    int
	declared int
	emitted  int

	implied int
}

func reduceHeader(header []string) (Reduced, Format, int, error) {
	begin := indexOf(header, instrument.MarkerProtocol)
	if begin < 0 {
		return Reduced{}, 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "no %s block in header", instrument.MarkerProtocol)
	}

	pos := begin + 1
	first := -1
	for ; pos < len(header); pos++ {
		entry := strings.TrimSpace(header[pos])
		if isProtocolEnd(entry) || entry == instrument.MarkerData {
			break
		}
		if !strings.HasPrefix(entry, "[") {
			continue
		}
		word := strings.Fields(entry)[0]
		if word == "[Protocol" || strings.HasPrefix(word, "[End") {
			continue
		}
		if end, ok := instrument.LimitsEnd(inner(entry)); ok {
			pos = skipLimits(header, pos, end)
			continue
		}
		first = pos
		break
	}
	if first < 0 {
		return Reduced{}, FormatColon, 0, nil
	}

	r := &reducer{format: DetectFormat(strings.TrimSpace(header[first]))}
	lines := header[first:]
	i := 0
	next := func() (string, bool) {
		for i+1 < len(lines) {
			i++
			if entry := strings.TrimSpace(lines[i]); entry != "" {
				return entry, !isProtocolEnd(entry)
			}
		}
		return "", false
	}

	for ; i < len(lines); i++ {
		entry := strings.TrimSpace(lines[i])
		if isProtocolEnd(entry) || entry == instrument.MarkerData {
			break
		}
		if entry == "" {
			continue
		}
		if end, ok := instrument.LimitsEnd(inner(entry)); ok {
			i = skipLimits(lines, i, end)
			continue
		}
		if err := r.consume(entry, next); err != nil {
			return Reduced{}, r.format, 0, fmt.Errorf("header line %d: %w", first+i+1, err)
		}
	}
	if err := r.finish(); err != nil {
		return Reduced{}, r.format, 0, err
	}
	return Reduced{Commands: r.out}, r.format, r.implied, nil
}

func (r *reducer) consume(entry string, next func() (string, bool)) error {
	field := r.format.command(entry)
	name, known := r.format.lookup(field)

	switch {
	case known || isRepeat(field):
		r.flush()
		if isRepeat(field) {
			if r.inRepeat {
				return faults.Errorf(faults.ErrNestedRepeat, "protocol", "code not set to handle nested loops")
			}
			times, steps, err := r.format.repeatHeader(entry, next)
			if err != nil {
				return err
			}
			r.pending = &Command{Kind: KindRepeat, Times: times}
			r.inRepeat = true
			r.times = times
			r.declared = steps
			r.emitted = 0
			return nil
		}
		if r.inRepeat {
			r.emitted++
			r.implied += r.times
		} else {
			r.implied++
		}
		r.pending = &Command{Kind: KindStep, Name: name}
	case r.inRepeat && instrument.IsIncrement(field):
		// counter-only directive, declared in the step count but not measured
		r.declared--
	case r.inRepeat && instrument.SameEntry(inner(entry), "End repeat") && r.emitted > 0 && r.emitted == r.declared:
		r.flush()
	default:
		r.fold(inner(entry))
	}
	return nil
}

// fold appends a parameter line to the pending command.
func (r *reducer) fold(sub string) {
	if r.pending == nil || sub == "" || instrument.Ignored(sub) {
		return
	}
	if r.subs > 0 {
		r.pending.Payload += ";"
	}
	r.pending.Payload += sub
	r.subs++
}

// flush emits the pending command and closes the repeat block once all of
// its declared steps have been emitted.
func (r *reducer) flush() {
	if r.pending != nil {
		r.emit(*r.pending)
		r.pending = nil
		r.subs = 0
	}
	if r.inRepeat && r.emitted == r.declared {
		r.emit(Command{Kind: KindEndRepeat, Steps: r.declared})
		r.inRepeat = false
		r.times = 0
	}
}

func (r *reducer) emit(c Command) {
	c.Line = len(r.out) + 1
	r.out = append(r.out, c)
}

func (r *reducer) finish() error {
	r.flush()
	if r.inRepeat {
		return faults.Errorf(faults.ErrMalformedProtocol, "protocol",
			"repeat block declares %d steps but the protocol defines %d", r.declared, r.emitted)
	}
	return nil
}

func isProtocolEnd(entry string) bool {
	return strings.Contains(entry, instrument.MarkerEndProtocol)
}

func indexOf(lines []string, marker string) int {
	for i, line := range lines {
		if strings.Contains(line, marker) {
			return i
		}
		if strings.TrimSpace(line) == instrument.MarkerData {
			return -1
		}
	}
	return -1
}

// skipLimits returns the index of the entry closing a limits block opened at
// lines[start], or the last index before the end of the protocol.
func skipLimits(lines []string, start int, end string) int {
	for j := start + 1; j < len(lines); j++ {
		entry := strings.TrimSpace(lines[j])
		if isProtocolEnd(entry) {
			return j - 1
		}
		if instrument.SameEntry(inner(entry), end) {
			return j
		}
	}
	return len(lines) - 1
}
