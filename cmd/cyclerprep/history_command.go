package main

import (
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cyclerprep/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent preparation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("run history disabled: set paths.ledger_path in the configuration")
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rep := newReporter(cmd)
			if jsonOutput {
				return rep.json(runs)
			}
			if len(runs) == 0 {
				rep.printf("No runs recorded\n")
				return nil
			}
			rep.table(historyColumns, historyRows(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

var historyColumns = []column{
	{title: "Started"},
	{title: "Status"},
	{title: "File"},
	{title: "Rows", right: true},
	{title: "Protocol", right: true},
	{title: "Viable"},
	{title: "Duration", right: true},
	{title: "Error"},
}

func historyRows(runs []ledger.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		viable := "-"
		if run.ProtocolLines > 0 {
			viable = yesNo(run.Viable)
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(run.Status),
			filepath.Base(run.Target),
			strconv.Itoa(run.Rows),
			strconv.Itoa(run.ProtocolLines),
			viable,
			run.Duration().Round(time.Millisecond).String(),
			run.ErrorKind,
		})
	}
	return rows
}
