package protocol

import (
	"strconv"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Format is the header syntax of a protocol block, detected once per file.
type Format int

const (
	// FormatColon entries look like "[1: Constant_current_charge: ...]".
	FormatColon Format = iota
	// FormatSpace entries look like "[Constant current charge]".
	FormatSpace
)

func (f Format) String() string {
	if f == FormatSpace {
		return "space"
	}
	return "colon"
}

var vocabularies = func() map[Format]map[string]instrument.Command {
	colon := make(map[string]instrument.Command)
	space := make(map[string]instrument.Command)
	for _, c := range instrument.Commands() {
		colon[string(c)] = c
		space[c.Spaced()] = c
	}
	return map[Format]map[string]instrument.Command{
		FormatColon: colon,
		FormatSpace: space,
	}
}()

// DetectFormat picks the syntax from the first substantive protocol entry.
func DetectFormat(entry string) Format {
	if strings.Contains(entry, ":") {
		return FormatColon
	}
	return FormatSpace
}

// inner strips the surrounding brackets of a header entry.
func inner(entry string) string {
	entry = strings.TrimSpace(entry)
	entry = strings.TrimPrefix(entry, "[")
	entry = strings.TrimSuffix(entry, "]")
	return strings.TrimSpace(entry)
}

// command extracts the command field of a header entry.
func (f Format) command(entry string) string {
	if f == FormatColon && strings.Contains(entry, ":") {
		return strings.TrimSpace(strings.Split(entry, ":")[1])
	}
	return inner(entry)
}

// lookup resolves a command field against the vocabulary of the format.
func (f Format) lookup(field string) (instrument.Command, bool) {
	c, ok := vocabularies[f][field]
	return c, ok
}

func isRepeat(field string) bool {
	words := strings.Fields(field)
	return len(words) > 0 && words[0] == string(instrument.RepeatKeyword)
}

// repeatHeader reads the iteration count and the declared number of
// repeated steps. The colon syntax keeps both on the Repeat entry
// ("[3: Repeat: 5 times: 2]"); the space syntax puts them on the two
// following entries ("[Repeat 5 times]", "[Step count 2]"), which are
// pulled through next.
func (f Format) repeatHeader(entry string, next func() (string, bool)) (times, steps int, err error) {
	if f == FormatColon {
		fields := strings.Split(entry, ":")
		if len(fields) < 4 {
			return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "repeat entry %q lacks count fields", entry)
		}
		if times, err = firstInt(fields[2]); err != nil {
			return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "repeat entry %q: no iteration count", entry)
		}
		if steps, err = firstInt(strings.TrimSuffix(strings.TrimSpace(fields[3]), "]")); err != nil {
			return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "repeat entry %q: no step count", entry)
		}
		return times, steps, nil
	}

	countEntry, ok := next()
	if !ok || !hasKeyword(countEntry, string(instrument.RepeatKeyword)) {
		return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "expected repeat count after %q, got %q", entry, countEntry)
	}
	if times, err = firstInt(inner(countEntry)); err != nil {
		return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "repeat count entry %q has no number", countEntry)
	}
	stepEntry, ok := next()
	if !ok || !hasKeyword(stepEntry, "Step") {
		return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "expected step count after %q, got %q", countEntry, stepEntry)
	}
	if steps, err = firstInt(inner(stepEntry)); err != nil {
		return 0, 0, faults.Errorf(faults.ErrMalformedProtocol, "protocol", "step count entry %q has no number", stepEntry)
	}
	return times, steps, nil
}

func hasKeyword(entry, keyword string) bool {
	words := strings.Fields(inner(entry))
	return len(words) > 0 && words[0] == keyword
}

// firstInt returns the first whitespace separated integer token in s.
func firstInt(s string) (int, error) {
	var lastErr error
	for _, word := range strings.Fields(s) {
		n, err := strconv.Atoi(strings.Trim(word, "=:"))
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = strconv.ErrSyntax
	}
	return 0, lastErr
}
