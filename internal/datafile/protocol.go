package datafile

import (
	"strings"

	"cyclerprep/internal/instrument"
)

// HasReducedProtocol reports whether the header carries a reduced protocol.
func (f *File) HasReducedProtocol() bool {
	for _, line := range f.Header {
		if strings.TrimSpace(line) == instrument.MarkerReducedProtocol {
			return true
		}
	}
	return false
}

// SetReducedProtocol places lines, markers included, right before [Data],
// replacing any reduced protocol already present.
func (f *File) SetReducedProtocol(lines []string) {
	header := make([]string, 0, len(f.Header)+len(lines))
	inBlock := false
	for _, line := range f.Header {
		switch strings.TrimSpace(line) {
		case instrument.MarkerReducedProtocol:
			inBlock = true
			continue
		case instrument.MarkerEndReducedProtocol:
			inBlock = false
			continue
		}
		if !inBlock {
			header = append(header, line)
		}
	}
	f.Header = append(header, lines...)
}
