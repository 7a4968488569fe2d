package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePrepare(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePrepare() error {
	switch c.Prepare.Encoding {
	case "utf-8", "windows-1252":
	default:
		return fmt.Errorf("prepare.encoding must be utf-8 or windows-1252, got %q", c.Prepare.Encoding)
	}
	if !c.Prepare.AddState && !c.Prepare.AddProtocol {
		return errors.New("prepare: at least one of add_state and add_protocol must be enabled")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if _, err := filepath.Match(c.Watch.Pattern, "probe.csv"); err != nil {
		return fmt.Errorf("watch.pattern %q: %w", c.Watch.Pattern, err)
	}
	if c.Watch.SettleSeconds <= 0 {
		return errors.New("watch.settle_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
}
