package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cyclerprep/internal/ledger"
	"cyclerprep/internal/prepare"
	"cyclerprep/internal/testsupport"
)

func TestPrepareCommandAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.scenario(t, "cell.csv")

	out, _, err := runCLI(t, []string{"prepare", path}, env.configPath)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "wrote cell_prep.csv")
	requireContains(t, out, "16 rows")
	if _, err := os.Stat(prepare.CopyName(path)); err != nil {
		t.Fatalf("working copy missing: %v", err)
	}

	out, _, err = runCLI(t, []string{"prepare", "--overwrite", path}, env.configPath)
	if err != nil {
		t.Fatalf("prepare --overwrite: %v", err)
	}
	requireContains(t, out, "[OK]")

	out, _, err = runCLI(t, []string{"prepare", "--overwrite", path}, env.configPath)
	if err != nil {
		t.Fatalf("second prepare --overwrite: %v", err)
	}
	requireContains(t, out, "already prepared")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "unchanged")
	requireContains(t, out, "cell_prep.csv")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []ledger.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 2 || runs[0].Status != ledger.StatusUnchanged {
		t.Fatalf("unexpected history %+v", runs)
	}
}

func TestPrepareCommandReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	good := env.scenario(t, "good.csv")
	bad := testsupport.WriteExport(t, env.dataDir, "bad.csv", []string{"not", "an", "export"})

	out, _, err := runCLI(t, []string{"prepare", bad, good}, env.configPath)
	if err == nil {
		t.Fatal("expected error when a file fails")
	}
	requireContains(t, err.Error(), "1 of 2 files failed")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "[OK]")
}

func TestPrepareCommandNeedsSomethingToAdd(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.scenario(t, "cell.csv")

	_, _, err := runCLI(t, []string{"prepare", "--no-state", "--no-protocol", path}, env.configPath)
	if !errors.Is(err, errNothingToAdd) {
		t.Fatalf("expected errNothingToAdd, got %v", err)
	}
}

func TestProtocolCommandLeavesFileAlone(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	path := env.scenario(t, "cell.csv")
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"protocol", path}, env.configPath)
	if err != nil {
		t.Fatalf("protocol: %v", err)
	}
	requireContains(t, out, "Repeat 3 times")
	requireContains(t, out, "Constant_current_charge")
	requireContains(t, out, "viable: yes")

	out, _, err = runCLI(t, []string{"protocol", "--json", path}, env.configPath)
	if err != nil {
		t.Fatalf("protocol --json: %v", err)
	}
	var decoded protocolOutput
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode protocol: %v\n%s", err, out)
	}
	if len(decoded.Lines) != 8 || !decoded.Viable || decoded.Format != "colon" {
		t.Fatalf("unexpected protocol output %+v", decoded)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(original, after) {
		t.Fatal("protocol command modified the export")
	}
}

func TestHistoryRequiresLedger(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil {
		t.Fatal("expected error with the ledger disabled")
	}
	requireContains(t, err.Error(), "ledger_path")
}

func TestLogLevelFlagIsValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.scenario(t, "cell.csv")
	if _, _, err := runCLI(t, []string{"--log-level", "loud", "prepare", path}, env.configPath); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestDescribeReport(t *testing.T) {
	tests := []struct {
		name string
		rep  prepare.Report
		kind outcome
		want string
	}{
		{"unchanged", prepare.Report{}, outcomeUnchanged, "already prepared"},
		{
			"copy",
			prepare.Report{Source: "/d/a.csv", Target: "/d/a_prep.csv", Written: true, Rows: 4, Viable: true},
			outcomePrepared,
			"wrote a_prep.csv, 4 rows",
		},
		{
			"not viable",
			prepare.Report{Source: "/d/a.csv", Target: "/d/a.csv", Written: true, Rows: 4,
				Added: []string{"Protocol Line (it refers to the reduced protocol)"}},
			outcomeWarning,
			"4 rows, protocol not viable, loops unassigned",
		},
		{
			"cleaned",
			prepare.Report{Source: "/d/a.csv", Target: "/d/a.csv", Written: true, Cleaned: true, Attempts: 2, IgnoredRows: 1, Rows: 3},
			outcomePrepared,
			"cleaned (2 attempts), dropped 1 duplicated rows, 3 rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, got := describeReport(tt.rep)
			if kind != tt.kind || got != tt.want {
				t.Fatalf("describeReport = (%v, %q), want (%v, %q)", kind, got, tt.kind, tt.want)
			}
		})
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Log directory")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "sample written to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
