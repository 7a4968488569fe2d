package preflight

import (
	"path/filepath"

	"cyclerprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
// The ledger directory is only checked when the ledger is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Paths.LedgerPath != "" {
		dir := filepath.Dir(cfg.Paths.LedgerPath)
		results = append(results, CheckDirectoryAccess("Ledger directory", dir))
		results = append(results, CheckFreeSpace("Ledger free space", dir, mib(cfg.Prepare.MinFreeMiB)))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func mib(n int) uint64 {
	if n <= 0 {
		return 0
	}
	return uint64(n) << 20
}
