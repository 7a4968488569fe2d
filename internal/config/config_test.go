package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cyclerprep/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "cyclerprep", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "cyclerprep", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.LedgerPath != filepath.Join(tempHome, ".local", "share", "cyclerprep", "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.Paths.LedgerPath)
	}
	if cfg.Prepare.Overwrite {
		t.Fatal("expected overwrite disabled by default")
	}
	if !cfg.Prepare.AddState || !cfg.Prepare.AddProtocol {
		t.Fatal("expected state and protocol annotation enabled by default")
	}
	if cfg.Prepare.Encoding != "utf-8" {
		t.Fatalf("unexpected encoding %q", cfg.Prepare.Encoding)
	}
	if cfg.Watch.Pattern != "*.csv" || cfg.Watch.SettleSeconds != config.Default().Watch.SettleSeconds {
		t.Fatalf("unexpected watch defaults: %+v", cfg.Watch)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cyclerprep.toml")

	type payload struct {
		Paths struct {
			LedgerPath string `toml:"ledger_path"`
		} `toml:"paths"`
		Prepare struct {
			Overwrite bool   `toml:"overwrite"`
			Encoding  string `toml:"encoding"`
		} `toml:"prepare"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.LedgerPath = filepath.Join(tempDir, "runs.db")
	custom.Prepare.Overwrite = true
	custom.Prepare.Encoding = " Windows-1252 "
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.LedgerPath != custom.Paths.LedgerPath {
		t.Fatalf("expected ledger path from file, got %q", cfg.Paths.LedgerPath)
	}
	if !cfg.Prepare.Overwrite {
		t.Fatal("expected overwrite from file")
	}
	if cfg.Prepare.Encoding != "windows-1252" {
		t.Fatalf("expected normalized encoding, got %q", cfg.Prepare.Encoding)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if !cfg.Prepare.AddState {
		t.Fatal("expected unset keys to keep defaults")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "cyclerprep.toml")
	if err := os.WriteFile(configPath, []byte("[prepare]\nadd_sate = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvVarOverridesLogLevel(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "cyclerprep.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CYCLERPREP_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level from env, got %q", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[prepare]") {
		t.Fatalf("sample config missing prepare section: %s", contents)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if cfg.Prepare.MinFreeMiB != config.Default().Prepare.MinFreeMiB {
		t.Fatalf("sample min_free_mib %d differs from default", cfg.Prepare.MinFreeMiB)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"encoding", func(c *config.Config) { c.Prepare.Encoding = "ebcdic" }},
		{"nothing to add", func(c *config.Config) { c.Prepare.AddState, c.Prepare.AddProtocol = false, false }},
		{"watch pattern", func(c *config.Config) { c.Watch.Pattern = "[" }},
		{"settle", func(c *config.Config) { c.Watch.SettleSeconds = 0 }},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadNormalizesEncodingAliases(t *testing.T) {
	tests := map[string]string{
		"utf8":   "utf-8",
		"CP1252": "windows-1252",
		"latin1": "windows-1252",
	}
	for alias, want := range tests {
		t.Run(alias, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "cyclerprep.toml")
			body := "[prepare]\nencoding = \"" + alias + "\"\n"
			if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.Prepare.Encoding != want {
				t.Fatalf("encoding %q normalized to %q, want %q", alias, cfg.Prepare.Encoding, want)
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := map[string]string{
		"~":             home,
		"~/data/a.csv":  filepath.Join(home, "data", "a.csv"),
		"/tmp/../x.csv": "/x.csv",
		"":              "",
	}
	for in, want := range tests {
		got, err := config.ExpandPath(in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
