package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// outcome classifies one line of command output.
type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomePrepared
	outcomeWarning
	outcomeFailed
)

var outcomeStyles = map[outcome]struct {
	label string
	color text.Color
}{
	outcomeUnchanged: {"SAME", text.FgBlue},
	outcomePrepared:  {"OK", text.FgGreen},
	outcomeWarning:   {"WARN", text.FgYellow},
	outcomeFailed:    {"ERROR", text.FgRed},
}

// nameWidth pads file names so the outcome labels line up.
const nameWidth = 24

// reporter writes results to the command's stdout.
type reporter struct {
	out   io.Writer
	color bool
}

func newReporter(cmd *cobra.Command) *reporter {
	out := cmd.OutOrStdout()
	return &reporter{out: out, color: isTerminal(out)}
}

// result prints one "name [LABEL] detail" line.
func (r *reporter) result(name string, o outcome, detail string) {
	fmt.Fprintln(r.out, formatResult(name, o, detail, r.color))
}

func (r *reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func formatResult(name string, o outcome, detail string, color bool) string {
	style := outcomeStyles[o]
	label := "[" + style.label + "]"
	if color {
		label = style.color.Sprint(label)
	}
	line := fmt.Sprintf("  %-*s %s %s", nameWidth, name+":", label, detail)
	return strings.TrimRight(line, " ")
}

// column describes one table column.
type column struct {
	title string
	right bool
}

func (r *reporter) table(columns []column, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if c.right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		out := make(table.Row, len(columns))
		for i := range out {
			if i < len(row) {
				out[i] = row[i]
			} else {
				out[i] = ""
			}
		}
		tw.AppendRow(out)
	}
	tw.Render()
}

// json encodes v indented, for the --json flags.
func (r *reporter) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
