// Package protocol reduces the free-text test protocol stored in an export
// header into a compact, numbered command sequence.
//
// The header describes every step on one bracketed line followed by
// subordinate parameter lines, in one of two syntaxes ("[1: Name: ...]" or
// "[Name]"). Reduce detects the syntax once, folds parameters into their
// command, validates and labels repeat loops and counts how many logical
// steps the protocol implies so callers can tell whether it explains the
// measured data. A reduced protocol written back into the header is trusted
// on later runs and parsed instead of recomputed.
package protocol
