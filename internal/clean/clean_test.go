package clean_test

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cyclerprep/internal/clean"
	"cyclerprep/internal/faults"
	"cyclerprep/internal/testsupport"
)

func export(capacity float64, blocks ...testsupport.Block) []string {
	return testsupport.ExportLines(testsupport.ColonProtocol, blocks, capacity)
}

func TestCleanLeavesCleanExportAlone(t *testing.T) {
	lines := export(0, testsupport.Blocks(2, testsupport.ScenarioSteps...)...)
	res, err := clean.Clean(lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Changed {
		t.Fatal("clean export reported as changed")
	}
	if diff := cmp.Diff(lines, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Attempts != 1 || res.CapacityOffset != 0 || res.DummyColumns != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCleanKeepsLastAttemptAndCarriesCapacity(t *testing.T) {
	failed := export(0, testsupport.Block{Step: 0, Rows: 3})
	kept := export(0, testsupport.Block{Step: 0, Rows: 2})
	lines := append(slices.Clone(failed), kept...)

	res, err := clean.Clean(lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", res.Attempts)
	}
	if math.Abs(res.CapacityOffset-0.002) > 1e-12 {
		t.Fatalf("expected offset 0.002, got %v", res.CapacityOffset)
	}
	if !res.Changed {
		t.Fatal("expected change")
	}
	if len(res.Lines) != len(kept) {
		t.Fatalf("expected %d lines, got %d", len(kept), len(res.Lines))
	}
	last := strings.Split(res.Lines[len(res.Lines)-1], ",")
	got, err := strconv.ParseFloat(last[len(last)-1], 64)
	if err != nil || math.Abs(got-0.003) > 1e-12 {
		t.Fatalf("expected shifted capacity 0.003, got %s", last[len(last)-1])
	}
}

func TestCleanEmptyFailedAttemptContributesNothing(t *testing.T) {
	lines := []string{"[Summary]", "Novonix", "[Protocol]", "[Data]", testsupport.ColumnLine}
	lines = append(lines, export(1.5, testsupport.Block{Step: 0, Rows: 1})...)
	res, err := clean.Clean(lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.CapacityOffset != 0 {
		t.Fatalf("expected zero offset, got %v", res.CapacityOffset)
	}
}

func TestCleanRepairsHeaderAndColumns(t *testing.T) {
	lines := []string{
		"[Summary],,,",
		"Novonix HPC",
		"",
		"[Protocol],,",
		"[Data],,,",
		"Step Number, Step Time (h)",
		"",
		"1,0.0,9",
		"1,0.1,9",
	}
	res, err := clean.Clean(lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	want := []string{
		"[Summary]",
		"Novonix HPC",
		"[Protocol]",
		"[Data]",
		"Step Number, Step Time (h),dum0",
		"1,0.0,9",
		"1,0.1,9",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.DummyColumns != 1 {
		t.Fatalf("expected one dummy column, got %d", res.DummyColumns)
	}
}

func TestCleanRejects(t *testing.T) {
	tests := map[string][]string{
		"no summary":    {"Novonix", "[Data]", "A"},
		"no data":       {"[Summary]", "Novonix", "[Protocol]"},
		"no columns":    {"[Summary]", "[Data]", ""},
		"narrow rows":   {"[Summary]", "[Data]", "A, B, C", "1,2"},
		"text capacity": append(export(0, testsupport.Block{Step: 0, Rows: 1}), "[Summary]", "[Data]", testsupport.ColumnLine, "x,0,0,0,0,0,0,bad"),
	}
	for name, lines := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := clean.Clean(lines); !errors.Is(err, faults.ErrNotInstrumentFile) {
				t.Fatalf("expected ErrNotInstrumentFile, got %v", err)
			}
		})
	}
}
