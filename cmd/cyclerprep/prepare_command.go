package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"cyclerprep/internal/instrument"
	"cyclerprep/internal/prepare"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool
	var noState bool
	var noProtocol bool

	cmd := &cobra.Command{
		Use:   "prepare FILE...",
		Short: "Add state, protocol line and loop number columns to exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := prepare.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overwrite") {
				opts.Overwrite = overwrite
			}
			if noState {
				opts.AddState = false
			}
			if noProtocol {
				opts.AddProtocol = false
			}
			if !opts.AddState && !opts.AddProtocol {
				return errNothingToAdd
			}

			p, release, err := ctx.newPreparer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer release()

			rep := newReporter(cmd)
			failed := 0
			for _, path := range args {
				report, err := p.Prepare(cmd.Context(), path)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					failed++
					rep.result(filepath.Base(path), outcomeFailed, err.Error())
					continue
				}
				o, detail := describeReport(report)
				rep.result(filepath.Base(path), o, detail)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Prepare the file in place instead of a _prep copy")
	cmd.Flags().BoolVar(&noState, "no-state", false, "Do not add the state column")
	cmd.Flags().BoolVar(&noProtocol, "no-protocol", false, "Do not add the reduced protocol, protocol line and loop number")
	return cmd
}

func describeReport(rep prepare.Report) (outcome, string) {
	if !rep.Written {
		return outcomeUnchanged, "already prepared"
	}
	var parts []string
	if rep.Target != rep.Source {
		parts = append(parts, "wrote "+filepath.Base(rep.Target))
	}
	if rep.Cleaned {
		parts = append(parts, fmt.Sprintf("cleaned (%d attempts)", rep.Attempts))
	}
	if rep.IgnoredRows > 0 {
		parts = append(parts, fmt.Sprintf("dropped %d duplicated rows", rep.IgnoredRows))
	}
	parts = append(parts, fmt.Sprintf("%d rows", rep.Rows))
	if slices.Contains(rep.Added, instrument.ColumnLine) && !rep.Viable {
		parts = append(parts, "protocol not viable, loops unassigned")
		return outcomeWarning, strings.Join(parts, ", ")
	}
	return outcomePrepared, strings.Join(parts, ", ")
}
