// Package instrument holds the fixed lookup data describing Novonix cycler
// exports: column names, the protocol command vocabulary, the instrument step
// identifiers and the header lines that never carry protocol information.
//
// Everything here is read-only after package initialisation. Callers receive
// copies or query through accessor functions so the tables cannot drift at
// runtime.
package instrument
