// Package watch prepares exports as they appear in a directory.
//
// The instrument software writes exports incrementally, so a file is only
// handed over once no event has been seen for it during the settle window.
// Files are handled one at a time on the watcher goroutine.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"cyclerprep/internal/logging"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Skip reports files that must never be handed over, such as the
// watcher's own output.
type Skip func(path string) bool

// Watcher debounces filesystem events for one directory.
type Watcher struct {
	dir     string
	pattern string
	settle  time.Duration
	tick    time.Duration
	handle  Handler
	skip    Skip
	logger  *slog.Logger

	pending map[string]time.Time
}

// New constructs a Watcher for files in dir matching pattern.
func New(dir, pattern string, settle time.Duration, handle Handler, skip Skip, logger *slog.Logger) (*Watcher, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("watch pattern %q: %w", pattern, err)
	}
	if settle <= 0 {
		return nil, fmt.Errorf("settle window must be positive, got %s", settle)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	tick := min(settle/4, 250*time.Millisecond)
	if tick <= 0 {
		tick = settle
	}
	return &Watcher{
		dir:     dir,
		pattern: pattern,
		settle:  settle,
		tick:    tick,
		handle:  handle,
		skip:    skip,
		logger:  logging.NewComponentLogger(logger, "watch"),
		pending: make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is done. Handler errors are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", logging.Args(
		logging.String("dir", w.dir),
		logging.String("pattern", w.pattern),
		logging.Duration("settle", w.settle),
	)...)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.observe(event, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "events may have been missed"),
			)
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.process(ctx, path)
			}
		}
	}
}

// observe records a write or create for a matching file.
func (w *Watcher) observe(event fsnotify.Event, at time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			delete(w.pending, event.Name)
		}
		return
	}
	if !w.Matches(event.Name) {
		return
	}
	w.pending[event.Name] = at
}

// Matches reports whether path is a candidate for preparation.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if ok, _ := filepath.Match(w.pattern, base); !ok {
		return false
	}
	return w.skip == nil || !w.skip(path)
}

// due removes and returns the files quiet for at least the settle window,
// sorted for a stable processing order.
func (w *Watcher) due(now time.Time) []string {
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(out)
	return out
}

func (w *Watcher) process(ctx context.Context, path string) {
	ctx = logging.WithFile(ctx, path)
	if err := w.handle(ctx, path); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, w.logger), "prepare failed", "watch_prepare_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file left for manual preparation"),
		)
	}
}
