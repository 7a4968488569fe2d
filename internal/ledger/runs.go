package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the outcome of a run.
type Status string

const (
	// StatusPrepared means the export was rewritten.
	StatusPrepared Status = "prepared"
	// StatusUnchanged means every annotation was already present.
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Run is one preparation attempt.
type Run struct {
	ID string `json:"id"`
	// Source is the export named by the operator; Target is the file that
	// was prepared (Source itself or its _prep copy).
	Source string `json:"source"`
	Target string `json:"target"`
	Status Status `json:"status"`

	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	SHA256Before string `json:"sha256_before"`
	SHA256After  string `json:"sha256_after"`

	Attempts      int  `json:"attempts"`
	Rows          int  `json:"rows"`
	IgnoredRows   int  `json:"ignored_rows"`
	ProtocolLines int  `json:"protocol_lines"`
	Viable        bool `json:"viable"`
	Embedded      bool `json:"embedded"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

const runColumns = `id, source_path, target_path, status, error_kind, error_message,
	sha256_before, sha256_after, attempts, row_count, ignored_rows, protocol_lines,
	viable, embedded, started_at, finished_at`

// Record stores a finished run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("record run: empty id")
	}
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID, run.Source, run.Target, string(run.Status), run.ErrorKind, run.ErrorMessage,
			run.SHA256Before, run.SHA256After, run.Attempts, run.Rows, run.IgnoredRows, run.ProtocolLines,
			boolToInt(run.Viable), boolToInt(run.Embedded),
			formatTime(run.StartedAt), formatTime(run.FinishedAt),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &runs[0], nil
}

// LastFor returns the latest run that prepared target, if any.
func (s *Store) LastFor(ctx context.Context, target string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE target_path = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, target)
	if err != nil {
		return nil, fmt.Errorf("last run for %s: %w", target, err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var (
			run              Run
			status           string
			viable, embedded int
			started, done    string
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.Target, &status, &run.ErrorKind, &run.ErrorMessage,
			&run.SHA256Before, &run.SHA256After, &run.Attempts, &run.Rows, &run.IgnoredRows, &run.ProtocolLines,
			&viable, &embedded, &started, &done); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = Status(status)
		run.Viable = viable != 0
		run.Embedded = embedded != 0
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(done)
		out = append(out, run)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
