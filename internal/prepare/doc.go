// Package prepare ties the preparation stages together for one export:
// working copy, lock, sanity check, cleaning, state classification,
// protocol reduction, loop annotation, the guarded write and the ledger
// record.
//
// Stages run sequentially on an in-memory copy of the file. The context is
// checked between stages; no stage blocks on it.
package prepare
