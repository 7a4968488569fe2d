package datafile

import (
	"fmt"
	"strconv"
	"strings"

	"cyclerprep/internal/faults"
)

// Columns returns the trimmed column names.
func (f *File) Columns() []string {
	return append([]string(nil), f.names...)
}

// Index returns the position of the named column, or -1.
func (f *File) Index(name string) int {
	for i, n := range f.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (f *File) Has(name string) bool { return f.Index(name) >= 0 }

// Strings returns the trimmed values of the named column.
func (f *File) Strings(name string) ([]string, error) {
	col := f.Index(name)
	if col < 0 {
		return nil, faults.Errorf(faults.ErrNotInstrumentFile, "columns", "no %q column", name)
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		fields := strings.Split(row, ",")
		if col >= len(fields) {
			return nil, faults.Errorf(faults.ErrNotInstrumentFile, "columns",
				"row %d has %d fields, %q is column %d", i+1, len(fields), name, col+1)
		}
		out[i] = strings.TrimSpace(fields[col])
	}
	return out, nil
}

// Ints reads the named column as integers. Values written as floats with
// no fractional part ("3.0") are accepted.
func (f *File) Ints(name string) ([]int, error) {
	values, err := f.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			fv, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil || fv != float64(int(fv)) {
				return nil, faults.Wrap(faults.ErrNotInstrumentFile, "", "columns",
					fmt.Sprintf("row %d: %q value %q", i+1, name, v), err)
			}
			n = int(fv)
		}
		out[i] = n
	}
	return out, nil
}

// Floats reads the named column as floating point numbers.
func (f *File) Floats(name string) ([]float64, error) {
	values, err := f.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, faults.Wrap(faults.ErrNotInstrumentFile, "", "columns",
				fmt.Sprintf("row %d: %q value %q", i+1, name, v), err)
		}
		out[i] = x
	}
	return out, nil
}

// AppendColumn adds a trailing column. The column line gains ", name" and
// every row ",value".
func (f *File) AppendColumn(name string, values []string) error {
	if len(values) != len(f.Rows) {
		return faults.Errorf(faults.ErrInvariant, "columns", "%d values for %d rows in column %q", len(values), len(f.Rows), name)
	}
	f.setColumnLine(strings.TrimRight(f.ColumnLine, " ") + ", " + name)
	for i, row := range f.Rows {
		f.Rows[i] = strings.TrimRight(row, " ") + "," + values[i]
	}
	return nil
}

// AppendInts is AppendColumn for integer values.
func (f *File) AppendInts(name string, values []int) error {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return f.AppendColumn(name, out)
}

// DropRows removes the rows at the given ascending indexes.
func (f *File) DropRows(indexes []int) {
	if len(indexes) == 0 {
		return
	}
	kept := f.Rows[:0]
	next := 0
	for i, row := range f.Rows {
		if next < len(indexes) && indexes[next] == i {
			next++
			continue
		}
		kept = append(kept, row)
	}
	f.Rows = kept
}
