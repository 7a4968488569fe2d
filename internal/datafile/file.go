package datafile

import (
	"fmt"
	"os"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// File is a parsed export held in memory.
type File struct {
	// Header holds every line before [Data].
	Header []string
	// DataLine is the [Data] marker line as found in the file.
	DataLine string
	// ColumnLine is the raw line of column names.
	ColumnLine string
	Rows       []string

	Newline  string
	Encoding Encoding

	names []string
}

// Read loads and parses the export at path.
func Read(path string, enc Encoding) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	lines, newline, err := Decode(raw, enc)
	if err != nil {
		return nil, err
	}
	f, err := Parse(lines)
	if err != nil {
		return nil, err
	}
	f.Newline = newline
	f.Encoding = enc
	return f, nil
}

// Parse splits export lines into header, column names and rows. Blank rows
// are not expected after cleaning and are dropped.
func Parse(lines []string) (*File, error) {
	data := DataIndex(lines)
	if data < 0 {
		return nil, faults.Errorf(faults.ErrNotInstrumentFile, "parse", "no %s line", instrument.MarkerData)
	}
	f := &File{
		Header:   append([]string(nil), lines[:data]...),
		DataLine: lines[data],
		Newline:  "\n",
		Encoding: UTF8,
	}
	rest := lines[data+1:]
	for len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, faults.Errorf(faults.ErrNotInstrumentFile, "parse", "no column names after %s", instrument.MarkerData)
	}
	f.setColumnLine(rest[0])
	for _, row := range rest[1:] {
		if strings.TrimSpace(row) == "" {
			continue
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// DataIndex returns the index of the [Data] line, or -1.
func DataIndex(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, instrument.MarkerData) {
			return i
		}
	}
	return -1
}

func (f *File) setColumnLine(line string) {
	f.ColumnLine = line
	f.names = splitNames(line)
}

func splitNames(line string) []string {
	names := strings.Split(line, ",")
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return names
}

// Lines renders the file back into lines.
func (f *File) Lines() []string {
	out := make([]string, 0, len(f.Header)+len(f.Rows)+2)
	out = append(out, f.Header...)
	out = append(out, f.DataLine, f.ColumnLine)
	return append(out, f.Rows...)
}

// Bytes encodes the file with its original terminator and encoding.
func (f *File) Bytes() ([]byte, error) {
	return Encode(f.Lines(), f.Newline, f.Encoding)
}
