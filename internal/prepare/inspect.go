package prepare

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cyclerprep/internal/clean"
	"cyclerprep/internal/datafile"
	"cyclerprep/internal/faults"
	"cyclerprep/internal/instrument"
	"cyclerprep/internal/logging"
	"cyclerprep/internal/protocol"
)

// Inspect reduces the protocol of the export at path without writing
// anything. Cleaning and classification happen in memory only.
func Inspect(ctx context.Context, path string, enc datafile.Encoding, logger *slog.Logger) (protocol.Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	res, err := inspect(ctx, path, enc, logger)
	return res, faults.InFile(err, path)
}

func inspect(ctx context.Context, path string, enc datafile.Encoding, logger *slog.Logger) (protocol.Result, error) {
	if err := checkpoint(ctx, "inspect"); err != nil {
		return protocol.Result{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("read export: %w", err)
	}
	lines, _, err := datafile.Decode(raw, enc)
	if err != nil {
		return protocol.Result{}, err
	}
	if err := datafile.Check(lines); err != nil {
		return protocol.Result{}, err
	}
	cleaned, err := clean.Clean(lines)
	if err != nil {
		return protocol.Result{}, err
	}
	f, err := datafile.Parse(cleaned.Lines)
	if err != nil {
		return protocol.Result{}, err
	}
	codes, _, err := rowStates(logger, f)
	if err != nil {
		return protocol.Result{}, err
	}
	stepIDs, err := f.Ints(instrument.ColumnStep)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Reduce(f.Header, codes, stepIDs)
}
