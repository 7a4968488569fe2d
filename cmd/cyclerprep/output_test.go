package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
)

func TestFormatResultPlain(t *testing.T) {
	tests := []struct {
		o      outcome
		detail string
		want   string
	}{
		{outcomeFailed, "not an instrument export", "  cell.csv:                [ERROR] not an instrument export"},
		{outcomeUnchanged, "", "  cell.csv:                [SAME]"},
	}
	for _, tt := range tests {
		if got := formatResult("cell.csv", tt.o, tt.detail, false); got != tt.want {
			t.Fatalf("formatResult(%v)\n got: %q\nwant: %q", tt.o, got, tt.want)
		}
	}
}

func TestFormatResultColorsLabelOnly(t *testing.T) {
	got := formatResult("cell.csv", outcomePrepared, "16 rows", true)
	if !strings.Contains(got, text.FgGreen.Sprint("[OK]")) {
		t.Fatalf("expected green label, got %q", got)
	}
	if !strings.HasSuffix(got, " 16 rows") {
		t.Fatalf("detail should stay uncolored, got %q", got)
	}
}

func TestReporterTable(t *testing.T) {
	var buf bytes.Buffer
	rep := &reporter{out: &buf}
	rep.table([]column{{title: "Line", right: true}, {title: "Command"}}, [][]string{
		{"1", "Open_circuit_storage"},
		{"2"},
	})
	out := buf.String()
	for _, want := range []string{"Line", "Command", "Open_circuit_storage"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("short row should render empty cells:\n%s", out)
	}
}

func TestIsTerminalBuffer(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}
