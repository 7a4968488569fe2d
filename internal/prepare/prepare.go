package prepare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"cyclerprep/internal/clean"
	"cyclerprep/internal/datafile"
	"cyclerprep/internal/faults"
	"cyclerprep/internal/fileutil"
	"cyclerprep/internal/instrument"
	"cyclerprep/internal/ledger"
	"cyclerprep/internal/logging"
	"cyclerprep/internal/loops"
	"cyclerprep/internal/preflight"
	"cyclerprep/internal/protocol"
	"cyclerprep/internal/state"
)

// Recorder stores finished runs. *ledger.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, run ledger.Run) error
}

// Preparer runs preparations with fixed options.
type Preparer struct {
	opts   Options
	logger *slog.Logger
	ledger Recorder
	now    func() time.Time
}

// New constructs a Preparer. logger and rec may be nil.
func New(opts Options, logger *slog.Logger, rec Recorder) *Preparer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Encoding == "" {
		opts.Encoding = datafile.UTF8
	}
	return &Preparer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "prepare"),
		ledger: rec,
		now:    time.Now,
	}
}

// Report describes one preparation.
type Report struct {
	RunID  string
	Source string
	Target string

	Attempts      int
	Cleaned       bool
	Rows          int
	IgnoredRows   int
	Added         []string
	ProtocolLines int
	Viable        bool
	Embedded      bool
	// Written is false when the export already carried every annotation.
	Written bool

	SHA256Before string
	SHA256After  string
}

// Prepare annotates the export at path and returns what was done. Errors
// carry the offending file via faults.InFile.
func (p *Preparer) Prepare(ctx context.Context, path string) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Source: path}
	started := p.now()

	ctx = logging.WithRunID(ctx, rep.RunID)
	ctx = logging.WithFile(ctx, path)

	err := p.run(ctx, &rep)
	if err != nil {
		err = faults.InFile(err, rep.fileForError())
	}
	p.record(ctx, rep, started, err)
	return rep, err
}

func (r Report) fileForError() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Source
}

func (p *Preparer) run(ctx context.Context, rep *Report) error {
	logger := logging.WithContext(ctx, p.logger)

	if err := checkpoint(ctx, "copy"); err != nil {
		return err
	}
	target, err := WorkingCopy(rep.Source, p.opts.Overwrite)
	if err != nil {
		return err
	}
	rep.Target = target
	if target != rep.Source {
		logger.Debug("working copy created", logging.Args(logging.String("target", target))...)
	}

	lock, err := acquire(target)
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("release lock failed", logging.Args(logging.Error(unlockErr))...)
		}
	}()

	raw, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	rep.SHA256Before = fileutil.ChecksumBytes(raw)
	rep.SHA256After = rep.SHA256Before

	lines, newline, err := datafile.Decode(raw, p.opts.Encoding)
	if err != nil {
		return err
	}
	if err := datafile.Check(lines); err != nil {
		return err
	}

	if err := checkpoint(ctx, "clean"); err != nil {
		return err
	}
	cleaned, err := clean.Clean(lines)
	if err != nil {
		return err
	}
	rep.Attempts = cleaned.Attempts
	rep.Cleaned = cleaned.Changed
	// the replacement may only shrink by what cleaning removed
	floor := int64(len(raw))
	if cleaned.Changed {
		data, err := datafile.Encode(cleaned.Lines, newline, p.opts.Encoding)
		if err != nil {
			return err
		}
		floor = int64(len(data))
		logger.Info("export cleaned", logging.Args(
			logging.String(logging.FieldStage, "clean"),
			logging.Int("attempts", cleaned.Attempts),
			logging.Int("dummy_columns", cleaned.DummyColumns),
			logging.Any("capacity_offset", cleaned.CapacityOffset),
		)...)
	}

	f, err := datafile.Parse(cleaned.Lines)
	if err != nil {
		return err
	}
	f.Newline = newline
	f.Encoding = p.opts.Encoding

	changed, err := p.annotate(ctx, logger, f, rep)
	if err != nil {
		return err
	}
	rep.Rows = len(f.Rows)
	if !changed && !rep.Cleaned {
		logger.Info("export already prepared", logging.Args(logging.String(logging.FieldEventType, "prepare_unchanged"))...)
		return nil
	}

	if err := checkpoint(ctx, "write"); err != nil {
		return err
	}
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if check := preflight.CheckReplacement(target, int64(len(data)), p.opts.MinFreeMiB); !check.Passed {
		return fmt.Errorf("preflight %s: %s", check.Name, check.Detail)
	}
	if err := datafile.ReplaceAtLeast(target, data, floor); err != nil {
		return err
	}
	rep.Written = true
	rep.SHA256After = fileutil.ChecksumBytes(data)
	logger.Info("export prepared", logging.Args(
		logging.String(logging.FieldEventType, "prepare_complete"),
		logging.Int("rows", rep.Rows),
		logging.Any("added", rep.Added),
	)...)
	return nil
}

// annotate adds the missing columns and reduced protocol to f. It reports
// whether f changed.
func (p *Preparer) annotate(ctx context.Context, logger *slog.Logger, f *datafile.File, rep *Report) (bool, error) {
	needState := p.opts.AddState && !f.Has(instrument.ColumnState)
	needLines := p.opts.AddProtocol && (!f.Has(instrument.ColumnLine) || !f.Has(instrument.ColumnLoop))
	needProtocol := p.opts.AddProtocol && !f.HasReducedProtocol()
	if !needState && !needLines && !needProtocol {
		return false, nil
	}

	if err := checkpoint(ctx, "state"); err != nil {
		return false, err
	}
	codes, ignored, err := rowStates(logger, f)
	if err != nil {
		return false, err
	}
	rep.IgnoredRows = ignored
	if needState {
		if err := f.AppendInts(instrument.ColumnState, codeValues(codes)); err != nil {
			return false, err
		}
		rep.Added = append(rep.Added, instrument.ColumnState)
	}
	if !needLines && !needProtocol {
		return true, nil
	}

	if err := checkpoint(ctx, "protocol"); err != nil {
		return false, err
	}
	stepIDs, err := f.Ints(instrument.ColumnStep)
	if err != nil {
		return false, err
	}
	reduced, err := protocol.Reduce(f.Header, codes, stepIDs)
	if err != nil {
		return false, err
	}
	rep.ProtocolLines = len(reduced.Protocol.Commands)
	rep.Viable = reduced.Viable
	rep.Embedded = reduced.Protocol.Embedded
	if !reduced.Viable {
		logging.WarnWithContext(logger, "protocol shorter than measured data", "protocol_not_viable",
			logging.String(logging.FieldStage, "protocol"),
			logging.Int("implied_steps", reduced.Implied),
			logging.Int("measured_steps", reduced.Unique),
			logging.String(logging.FieldImpact, "protocol line and loop number set to -999"),
			logging.String(logging.FieldErrorHint, "check the protocol block of the export header"),
		)
	} else if reduced.Surplus() {
		logger.Info("protocol declares unmeasured steps", logging.Args(
			logging.String(logging.FieldStage, "protocol"),
			logging.Int("implied_steps", reduced.Implied),
			logging.Int("measured_steps", reduced.Unique),
		)...)
	}
	if needProtocol {
		f.SetReducedProtocol(reduced.Protocol.Lines())
		rep.Added = append(rep.Added, instrument.MarkerReducedProtocol)
	}
	if !needLines {
		return true, nil
	}

	if err := checkpoint(ctx, "annotate"); err != nil {
		return false, err
	}
	ann, err := loops.Annotate(reduced.Protocol, reduced.Viable, stepIDs, codes)
	if err != nil {
		return false, err
	}
	if !f.Has(instrument.ColumnLine) {
		if err := f.AppendInts(instrument.ColumnLine, ann.Lines); err != nil {
			return false, err
		}
		rep.Added = append(rep.Added, instrument.ColumnLine)
	}
	if !f.Has(instrument.ColumnLoop) {
		if err := f.AppendInts(instrument.ColumnLoop, ann.Loops); err != nil {
			return false, err
		}
		rep.Added = append(rep.Added, instrument.ColumnLoop)
	}
	return true, nil
}

// rowStates returns one code per row and the number of rows dropped. An
// existing state column is trusted after validation; otherwise rows are
// classified and the duplicated samples dropped from f.
func rowStates(logger *slog.Logger, f *datafile.File) ([]state.Code, int, error) {
	if f.Has(instrument.ColumnState) {
		values, err := f.Strings(instrument.ColumnState)
		if err != nil {
			return nil, 0, err
		}
		codes := make([]state.Code, len(values))
		for i, v := range values {
			c, err := state.Parse(v)
			if err != nil {
				return nil, 0, faults.Wrap(faults.ErrInvariant, "", "state", fmt.Sprintf("row %d", i+1), err)
			}
			codes[i] = c
		}
		if err := state.Validate(codes); err != nil {
			return nil, 0, err
		}
		return codes, 0, nil
	}

	stepIDs, err := f.Ints(instrument.ColumnStep)
	if err != nil {
		return nil, 0, err
	}
	stepTimes, err := f.Floats(instrument.ColumnStepTime)
	if err != nil {
		return nil, 0, err
	}
	res, err := state.Classify(stepIDs, stepTimes)
	if err != nil {
		return nil, 0, err
	}
	// rows start after the header, the [Data] marker and the column line
	firstRowLine := len(f.Header) + 3
	for _, i := range res.Ignored {
		logging.WarnWithContext(logger, "duplicated sample dropped", "duplicate_sample",
			logging.String(logging.FieldStage, "state"),
			logging.Int("line", firstRowLine+i),
			logging.String(logging.FieldImpact, "row removed from the prepared export"),
			logging.String(logging.FieldErrorHint, "instrument recorded a one-sample step twice"),
		)
	}
	f.DropRows(res.Ignored)
	return res.Kept(), len(res.Ignored), nil
}

func codeValues(codes []state.Code) []int {
	out := make([]int, len(codes))
	for i, c := range codes {
		out[i] = int(c)
	}
	return out
}

func checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

func (p *Preparer) record(ctx context.Context, rep Report, started time.Time, runErr error) {
	logger := logging.WithContext(ctx, p.logger)
	if runErr != nil {
		logging.ErrorWithContext(logger, "preparation failed", "prepare_failed",
			logging.String(logging.FieldErrorKind, faults.Kind(runErr)),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, hint(runErr)),
		)
	}
	if p.ledger == nil {
		return
	}

	run := ledger.Run{
		ID:            rep.RunID,
		Source:        rep.Source,
		Target:        rep.fileForError(),
		Status:        ledger.StatusPrepared,
		SHA256Before:  rep.SHA256Before,
		SHA256After:   rep.SHA256After,
		Attempts:      rep.Attempts,
		Rows:          rep.Rows,
		IgnoredRows:   rep.IgnoredRows,
		ProtocolLines: rep.ProtocolLines,
		Viable:        rep.Viable,
		Embedded:      rep.Embedded,
		StartedAt:     started,
		FinishedAt:    p.now(),
	}
	switch {
	case runErr != nil:
		run.Status = ledger.StatusFailed
		run.ErrorKind = faults.Kind(runErr)
		run.ErrorMessage = runErr.Error()
	case !rep.Written:
		run.Status = ledger.StatusUnchanged
	}
	// The run is over; record it even when the caller cancelled.
	if err := p.ledger.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "ledger record failed", "ledger_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func hint(err error) string {
	switch {
	case errors.Is(err, faults.ErrLocked):
		return "wait for the other preparation to finish"
	case errors.Is(err, faults.ErrNotInstrumentFile):
		return "check that the file is an unmodified Novonix export"
	case errors.Is(err, faults.ErrUnsafeReplacement):
		return "original left untouched; report the file"
	case errors.Is(err, faults.ErrNestedRepeat), errors.Is(err, faults.ErrMalformedProtocol):
		return "protocol block cannot be reduced; run without protocol annotation"
	default:
		return "check logs for details"
	}
}
