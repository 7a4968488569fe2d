// Package preflight provides readiness checks for the filesystem paths that
// cyclerprep writes to.
//
// These checks run in two contexts:
//   - The prepare orchestrator calls CheckReplacement before writing a
//     replacement export, so a full disk fails fast instead of leaving a
//     truncated temp file behind.
//   - The CLI "config validate" command uses RunAll to display the state of
//     the configured log and ledger directories.
package preflight
