package testsupport

import (
	"path/filepath"
	"testing"

	"cyclerprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LedgerPath = filepath.Join(base, "ledger.db")
	cfg.Prepare.MinFreeMiB = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithOverwrite prepares exports in place.
func WithOverwrite() ConfigOption {
	return func(c *config.Config) { c.Prepare.Overwrite = true }
}

// WithoutLedger disables the run history.
func WithoutLedger() ConfigOption {
	return func(c *config.Config) { c.Paths.LedgerPath = "" }
}

// WithEncoding sets the export character set.
func WithEncoding(name string) ConfigOption {
	return func(c *config.Config) { c.Prepare.Encoding = name }
}
