package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedProtocol = errors.New("malformed protocol")
	ErrNestedRepeat      = errors.New("nested repeat loops unsupported")
	ErrRepeatLength      = errors.New("repeated-step array unexpected length")
	ErrUnexpectedCommand = errors.New("unexpected command in reduced protocol")
	ErrInvariant         = errors.New("state invariant violation")
	ErrUnsafeReplacement = errors.New("replacement smaller than original")
	ErrNotInstrumentFile = errors.New("not an instrument export")
	ErrLocked            = errors.New("file locked by another process")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrMalformedProtocol, "malformed_protocol"},
	{ErrNestedRepeat, "nested_repeat"},
	{ErrRepeatLength, "repeat_length"},
	{ErrUnexpectedCommand, "unexpected_command"},
	{ErrInvariant, "invariant"},
	{ErrUnsafeReplacement, "unsafe_replacement"},
	{ErrNotInstrumentFile, "not_instrument_file"},
	{ErrLocked, "locked"},
}

// Wrap builds an error naming the file, stage and reason while tagging it
// with marker. marker should be one of the sentinels above; err is the
// optional underlying cause.
func Wrap(marker error, file, stage, reason string, err error) error {
	detail := buildDetail(file, stage, reason)
	if marker == nil {
		marker = ErrInvariant
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Errorf is Wrap without a file; the orchestrator adds the file with InFile.
func Errorf(marker error, stage, format string, args ...any) error {
	return Wrap(marker, "", stage, fmt.Sprintf(format, args...), nil)
}

// InFile annotates err with the offending file, keeping every marker intact.
func InFile(err error, file string) error {
	if err == nil {
		return nil
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return err
	}
	return &fileError{file: file, err: err}
}

type fileError struct {
	file string
	err  error
}

func (e *fileError) Error() string { return e.err.Error() + " (file " + e.file + ")" }

func (e *fileError) Unwrap() error { return e.err }

// File returns the file recorded by InFile, if any.
func File(err error) (string, bool) {
	var fe *fileError
	if errors.As(err, &fe) {
		return fe.file, true
	}
	return "", false
}

// Kind returns the stable short name of the marker carried by err, "" for
// nil and "internal" for errors without a known marker.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "internal"
}

func buildDetail(file, stage, reason string) string {
	parts := make([]string, 0, 3)
	if file = strings.TrimSpace(file); file != "" {
		parts = append(parts, file)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		parts = append(parts, reason)
	}
	if len(parts) == 0 {
		return "preparation failure"
	}
	return strings.Join(parts, ": ")
}
