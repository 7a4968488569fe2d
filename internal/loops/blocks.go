package loops

import "cyclerprep/internal/state"

// Block is a run of rows measured by one instrument step, bounds inclusive.
type Block struct {
	First int
	Last  int
}

// Blocks splits classified rows into measurement blocks. A block that is
// still open at the end of the data is closed at the last row.
func Blocks(codes []state.Code) []Block {
	var out []Block
	first := -1
	for i, c := range codes {
		switch {
		case c == state.Single:
			if first >= 0 {
				out = append(out, Block{First: first, Last: i - 1})
			}
			out = append(out, Block{First: i, Last: i})
			first = -1
		case c.Opens():
			if first >= 0 {
				out = append(out, Block{First: first, Last: i - 1})
			}
			first = i
		case c.Closes():
			if first < 0 {
				first = i
			}
			out = append(out, Block{First: first, Last: i})
			first = -1
		case first < 0:
			// regular row without a Start, only possible on unvalidated input
			first = i
		}
	}
	if first >= 0 {
		out = append(out, Block{First: first, Last: len(codes) - 1})
	}
	return out
}
