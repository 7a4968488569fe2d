// Package ledger records the history of preparation runs in SQLite.
//
// Every run, successful or not, is stored with the checksums of the export
// before and after preparation so an operator can tell which files were
// rewritten and why a run failed.
package ledger
