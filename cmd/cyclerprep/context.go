package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cyclerprep/internal/config"
	"cyclerprep/internal/ledger"
	"cyclerprep/internal/logging"
	"cyclerprep/internal/prepare"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		if dir := cfg.Paths.LogDir; dir != "" {
			logging.PruneLogs(logger, dir, logging.FilePattern, filepath.Join(dir, logging.FileName(time.Now())), cfg.Logging.RetentionDays)
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openLedger opens the run history. It returns a nil store when the ledger
// is disabled in the configuration; the caller closes a non-nil store.
func (c *commandContext) openLedger(ctx context.Context) (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.LedgerPath == "" {
		return nil, nil
	}
	store, err := ledger.Open(ctx, cfg.Paths.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

// newPreparer builds a Preparer recording into the ledger. The returned
// function releases the ledger.
func (c *commandContext) newPreparer(ctx context.Context, opts prepare.Options) (*prepare.Preparer, func(), error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openLedger(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return prepare.New(opts, logger, nil), func() {}, nil
	}
	release := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close ledger failed", logging.Args(logging.Error(err))...)
		}
	}
	return prepare.New(opts, logger, store), release, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

var errNothingToAdd = errors.New("nothing to add: both state and protocol annotation are disabled")
