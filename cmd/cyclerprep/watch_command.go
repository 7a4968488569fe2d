package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cyclerprep/internal/prepare"
	"cyclerprep/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Prepare exports as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := prepare.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			p, release, err := ctx.newPreparer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer release()

			rep := newReporter(cmd)
			handle := func(runCtx context.Context, path string) error {
				report, err := p.Prepare(runCtx, path)
				if err != nil {
					rep.result(filepath.Base(path), outcomeFailed, err.Error())
					return err
				}
				o, detail := describeReport(report)
				rep.result(filepath.Base(path), o, detail)
				return nil
			}

			settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
			w, err := watch.New(args[0], cfg.Watch.Pattern, settle, handle, prepare.IsWorkingCopy, logger)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
}
