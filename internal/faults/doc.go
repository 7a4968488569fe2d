// Package faults defines the fatal error kinds raised while preparing an
// instrument export.
//
// Every unrecoverable condition is tagged with one sentinel marker so
// callers can branch with errors.Is instead of parsing messages. Wrap stamps
// the offending file, the pipeline stage and a human readable reason around
// the marker; Kind maps an error back to a short stable name for logs and the
// run ledger.
package faults
