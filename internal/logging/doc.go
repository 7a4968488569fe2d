// Package logging assembles the structured slog loggers used by cyclerprep.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag every line of a preparation run with its run id
// and file. A no-op logger is provided for tests.
package logging
