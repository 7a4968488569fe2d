package config

import (
	"fmt"
	"os"
	"strings"
)

// logLevelEnv overrides logging.level when set.
const logLevelEnv = "CYCLERPREP_LOG_LEVEL"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePrepare()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// an empty ledger path disables the run history
	if c.Paths.LedgerPath, err = expandPath(strings.TrimSpace(c.Paths.LedgerPath)); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePrepare() {
	c.Prepare.Encoding = strings.ToLower(strings.TrimSpace(c.Prepare.Encoding))
	switch c.Prepare.Encoding {
	case "", "utf8":
		c.Prepare.Encoding = defaultEncoding
	case "cp1252", "latin1":
		c.Prepare.Encoding = "windows-1252"
	}
	if c.Prepare.MinFreeMiB < 0 {
		c.Prepare.MinFreeMiB = 0
	}
}

func (c *Config) normalizeWatch() {
	c.Watch.Pattern = strings.TrimSpace(c.Watch.Pattern)
	if c.Watch.Pattern == "" {
		c.Watch.Pattern = defaultWatchPattern
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv(logLevelEnv); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
