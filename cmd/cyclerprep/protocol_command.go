package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"cyclerprep/internal/datafile"
	"cyclerprep/internal/prepare"
	"cyclerprep/internal/protocol"
)

func newProtocolCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "protocol FILE",
		Short: "Print the reduced protocol of an export without modifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			enc, err := datafile.ParseEncoding(cfg.Prepare.Encoding)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			res, err := prepare.Inspect(cmd.Context(), args[0], enc, logger)
			if err != nil {
				return err
			}
			rep := newReporter(cmd)
			if jsonOutput {
				return rep.json(protocolJSON(res))
			}

			rep.table([]column{
				{title: "Line", right: true},
				{title: "Kind"},
				{title: "Command"},
				{title: "Parameters"},
			}, protocolRows(res.Protocol))
			source := "header (" + res.Format.String() + " format)"
			if res.Protocol.Embedded {
				source = "embedded"
			}
			rep.printf("Source: %s\n", source)
			rep.printf("Implied steps: %d, measured steps: %d, viable: %s\n", res.Implied, res.Unique, yesNo(res.Viable))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func protocolRows(red protocol.Reduced) [][]string {
	rows := make([][]string, 0, len(red.Commands))
	for _, c := range red.Commands {
		params := c.Payload
		switch c.Kind {
		case protocol.KindRepeat:
			params = strconv.Itoa(c.Times) + " times"
		case protocol.KindEndRepeat:
			params = strconv.Itoa(c.Steps) + " steps"
		}
		rows = append(rows, []string{strconv.Itoa(c.Line), c.Kind.String(), c.Text(), params})
	}
	return rows
}

type protocolOutput struct {
	Lines    []string `json:"lines"`
	Format   string   `json:"format"`
	Embedded bool     `json:"embedded"`
	Implied  int      `json:"implied_steps"`
	Measured int      `json:"measured_steps"`
	Viable   bool     `json:"viable"`
}

func protocolJSON(res protocol.Result) protocolOutput {
	return protocolOutput{
		Lines:    res.Protocol.Lines(),
		Format:   res.Format.String(),
		Embedded: res.Protocol.Embedded,
		Implied:  res.Implied,
		Measured: res.Unique,
		Viable:   res.Viable,
	}
}
