// Package clean normalizes raw Novonix exports before annotation.
//
// An export may hold several attempts of the same test when the instrument
// was restarted; each begins with a [Summary] entry. Only the last attempt
// is kept and the capacity accumulated by the failed ones is carried over.
// Spreadsheet round trips leave blank lines, trailing commas after header
// entries and rows wider than the column line; those are repaired as well.
package clean

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Result is a cleaned export.
type Result struct {
	Lines []string
	// Attempts is the number of [Summary] blocks found.
	Attempts int
	// CapacityOffset is the capacity added to every kept row.
	CapacityOffset float64
	// DummyColumns is the number of dumN names added to the column line.
	DummyColumns int
	// Changed is false when lines were already clean.
	Changed bool
}

// Clean returns the cleaned form of lines. lines is not modified.
func Clean(lines []string) (Result, error) {
	starts := summaryStarts(lines)
	if len(starts) == 0 {
		return Result{}, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "no %s entry", instrument.MarkerSummary)
	}
	res := Result{Attempts: len(starts)}

	for i := 0; i < len(starts)-1; i++ {
		last, err := lastCapacity(lines[starts[i]:starts[i+1]])
		if err != nil {
			return Result{}, fmt.Errorf("attempt %d: %w", i+1, err)
		}
		res.CapacityOffset += last
	}

	kept := lines[starts[len(starts)-1]:]
	out := []string{instrument.MarkerSummary}
	pos := 1
	sawData := false
	for ; pos < len(kept); pos++ {
		line := kept[pos]
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, "[") {
			out = append(out, line)
			continue
		}
		entry = entry[:strings.Index(entry+"]", "]")] + "]"
		out = append(out, entry)
		if entry == instrument.MarkerData {
			sawData = true
			pos++
			break
		}
	}
	if !sawData {
		return Result{}, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "last attempt has no %s line", instrument.MarkerData)
	}

	var rows []string
	columns := ""
	for ; pos < len(kept); pos++ {
		if strings.TrimSpace(kept[pos]) == "" {
			continue
		}
		if columns == "" {
			columns = kept[pos]
			continue
		}
		rows = append(rows, kept[pos])
	}
	if columns == "" {
		return Result{}, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "no column names after %s", instrument.MarkerData)
	}

	if len(rows) > 0 {
		nameCount := len(strings.Split(columns, ","))
		dataCount := len(strings.Split(rows[0], ","))
		switch {
		case dataCount < nameCount:
			return Result{}, faults.Errorf(faults.ErrNotInstrumentFile, "clean",
				"%d data columns but %d column names", dataCount, nameCount)
		case dataCount > nameCount:
			res.DummyColumns = dataCount - nameCount
			var b strings.Builder
			b.WriteString(strings.TrimRight(columns, " "))
			for i := 0; i < res.DummyColumns; i++ {
				fmt.Fprintf(&b, ",dum%d", i)
			}
			columns = b.String()
		}
	}
	out = append(out, columns)

	if res.Attempts > 1 {
		col := columnIndex(columns, instrument.ColumnCapacity)
		if col < 0 {
			return Result{}, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "no %q column to carry over failed attempts", instrument.ColumnCapacity)
		}
		for i, row := range rows {
			shifted, err := shiftField(row, col, res.CapacityOffset)
			if err != nil {
				return Result{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			rows[i] = shifted
		}
	}
	out = append(out, rows...)

	res.Lines = out
	res.Changed = !slices.Equal(out, lines)
	return res, nil
}

func summaryStarts(lines []string) []int {
	var starts []int
	for i, line := range lines {
		if strings.Contains(line, instrument.MarkerSummary) {
			starts = append(starts, i)
		}
	}
	return starts
}

// lastCapacity returns the capacity of the last data row of one attempt. An
// attempt that stopped before recording any row contributes nothing.
func lastCapacity(attempt []string) (float64, error) {
	columns := ""
	data := false
	last := ""
	for _, line := range attempt {
		entry := strings.TrimSpace(line)
		switch {
		case entry == "":
		case !data:
			data = strings.Contains(entry, instrument.MarkerData)
		case columns == "":
			columns = entry
		default:
			last = entry
		}
	}
	if last == "" {
		return 0, nil
	}
	col := columnIndex(columns, instrument.ColumnCapacity)
	if col < 0 {
		return 0, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "no %q column", instrument.ColumnCapacity)
	}
	fields := strings.Split(last, ",")
	if col >= len(fields) {
		return 0, faults.Errorf(faults.ErrNotInstrumentFile, "clean", "last row has no capacity field")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[col]), 64)
	if err != nil {
		return 0, faults.Wrap(faults.ErrNotInstrumentFile, "", "clean", "capacity of last row", err)
	}
	return v, nil
}

func columnIndex(columns, name string) int {
	for i, n := range strings.Split(columns, ",") {
		if strings.TrimSpace(n) == name {
			return i
		}
	}
	return -1
}

func shiftField(row string, col int, offset float64) (string, error) {
	fields := strings.Split(row, ",")
	if col >= len(fields) {
		return "", faults.Errorf(faults.ErrNotInstrumentFile, "clean", "row has no capacity field")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[col]), 64)
	if err != nil {
		return "", faults.Wrap(faults.ErrNotInstrumentFile, "", "clean", "capacity value", err)
	}
	fields[col] = strconv.FormatFloat(v+offset, 'g', -1, 64)
	return strings.Join(fields, ","), nil
}
