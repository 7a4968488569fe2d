package datafile

import (
	"slices"
	"strings"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
)

// Check verifies that lines look like a Novonix export: the summary,
// instrument, protocol and data entries appear in that order before the
// first data row, and the column line names the step number and step time.
// Blank lines and trailing commas left by spreadsheet programs are
// tolerated.
func Check(lines []string) error {
	keywords := []string{
		strings.Trim(instrument.MarkerSummary, "[]"),
		instrument.Signature(),
		strings.Trim(instrument.MarkerProtocol, "[]"),
		strings.Trim(instrument.MarkerData, "[]"),
	}
	pos := 0
	for _, keyword := range keywords {
		found := false
		for ; pos < len(lines); pos++ {
			entry := strings.TrimSpace(lines[pos])
			if entry == "" {
				continue
			}
			if isNumeric(entry) {
				return faults.Errorf(faults.ErrNotInstrumentFile, "check", "reached data rows without the %s entry", keyword)
			}
			if strings.Contains(entry, keyword) {
				found = true
				pos++
				break
			}
		}
		if !found {
			return faults.Errorf(faults.ErrNotInstrumentFile, "check", "no %s entry", keyword)
		}
	}

	columns := ""
	for ; pos < len(lines); pos++ {
		entry := strings.TrimSpace(lines[pos])
		if entry == "" {
			continue
		}
		if isNumeric(entry) {
			break
		}
		columns = entry
	}
	names := splitNames(columns)
	for _, want := range []string{instrument.ColumnStep, instrument.ColumnStepTime} {
		if !slices.Contains(names, want) {
			return faults.Errorf(faults.ErrNotInstrumentFile, "check", "no %q column", want)
		}
	}
	return nil
}

// isNumeric reports whether entry starts like a data row.
func isNumeric(entry string) bool {
	c := entry[0]
	return (c >= '0' && c <= '9') || c == '-'
}
