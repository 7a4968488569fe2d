package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"cyclerprep/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := ledger.Run{
		ID:            uuid.NewString(),
		Source:        "/data/cell.csv",
		Target:        "/data/cell_prep.csv",
		Status:        ledger.StatusPrepared,
		SHA256Before:  "aa",
		SHA256After:   "bb",
		Attempts:      2,
		Rows:          120,
		IgnoredRows:   1,
		ProtocolLines: 6,
		Viable:        true,
		StartedAt:     base,
		FinishedAt:    base.Add(time.Second),
	}
	second := ledger.Run{
		ID:           uuid.NewString(),
		Source:       "/data/other.csv",
		Target:       "/data/other.csv",
		Status:       ledger.StatusFailed,
		ErrorKind:    "nested_repeat",
		ErrorMessage: "nested repeat loops unsupported",
		StartedAt:    base.Add(time.Minute),
		FinishedAt:   base.Add(time.Minute),
	}
	for _, run := range []ledger.Run{first, second} {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]ledger.Run{second, first}, runs); diff != "" {
		t.Fatalf("runs mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Fatalf("expected newest run only, got %+v", limited)
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Duration() != time.Second {
		t.Fatalf("unexpected duration %s", got.Duration())
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	last, err := store.LastFor(ctx, "/data/cell_prep.csv")
	if err != nil || last == nil || last.ID != first.ID {
		t.Fatalf("LastFor = %+v, %v", last, err)
	}
	none, err := store.LastFor(ctx, "/nowhere.csv")
	if err != nil || none != nil {
		t.Fatalf("expected no run, got %+v, %v", none, err)
	}
}

func TestRecordRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), ledger.Run{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := ledger.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now().UTC()
	if err := store.Record(ctx, ledger.Run{ID: "run-1", Status: ledger.StatusUnchanged, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != ledger.StatusUnchanged {
		t.Fatalf("unexpected history after reopen: %+v", runs)
	}
}
