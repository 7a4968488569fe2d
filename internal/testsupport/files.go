package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ColumnLine is the column header of synthetic exports.
const ColumnLine = "Date and Time, Cycle Number, Step Number, Run Time (h), Step Time (h), Current (A), Potential (V), Capacity (Ah)"

// ColonProtocol is a protocol block in the colon syntax describing
// [rest, repeat 3 times (charge, discharge), rest].
var ColonProtocol = []string{
	"[Protocol]",
	"[Protocol name: formation]",
	"[1: Open_circuit_storage:]",
	"[Time: 1 h]",
	"[End storage]",
	"[2: Repeat: 3 times: 2]",
	"[3: Constant_current_charge:]",
	"[Current: 0.1 A]",
	"[End charge]",
	"[4: Constant_current_discharge:]",
	"[Current: -0.1 A]",
	"[End discharge]",
	"[5: Open_circuit_storage:]",
	"[Time: 1 h]",
	"[End Protocol]",
}

// SpaceProtocol is ColonProtocol in the space syntax.
var SpaceProtocol = []string{
	"[Protocol]",
	"[Open circuit storage]",
	"[Time 1 h]",
	"[End storage]",
	"[Repeat]",
	"[Repeat 3 times]",
	"[Step count 2]",
	"[Constant current charge]",
	"[Current 0.1 A]",
	"[End charge]",
	"[Constant current discharge]",
	"[Current -0.1 A]",
	"[End discharge]",
	"[End repeat]",
	"[Open circuit storage]",
	"[Time 1 h]",
	"[End Protocol]",
}

// ScenarioSteps matches ColonProtocol and SpaceProtocol block for block.
var ScenarioSteps = []int{0, 1, 2, 1, 2, 1, 2, 0}

// Block is one synthetic measurement step.
type Block struct {
	Step int
	Rows int
}

// Blocks builds blocks of the same size for every step identifier.
func Blocks(rows int, steps ...int) []Block {
	out := make([]Block, len(steps))
	for i, s := range steps {
		out[i] = Block{Step: s, Rows: rows}
	}
	return out
}

// ExportLines renders a synthetic single-attempt export. capacity is the
// capacity of the first row; it grows with every row.
func ExportLines(protocol []string, blocks []Block, capacity float64) []string {
	lines := []string{"[Summary]", "Novonix HPC Cycler", "Cell: synthetic"}
	lines = append(lines, protocol...)
	lines = append(lines, "[Data]", ColumnLine)

	run := 0.0
	for cycle, b := range blocks {
		for j := 0; j < b.Rows; j++ {
			stepTime := 0.1 * float64(j)
			lines = append(lines, fmt.Sprintf("2026-01-01 00:00:00,%d,%d,%.4f,%.4f,0.1,3.7,%.6f",
				cycle, b.Step, run, stepTime, capacity))
			run += 0.1
			capacity += 0.001
		}
	}
	return lines
}

// WriteExport writes lines to dir/name with "\n" terminators and returns
// the path.
func WriteExport(t testing.TB, dir, name string, lines []string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadLines returns the lines of the file at path.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
