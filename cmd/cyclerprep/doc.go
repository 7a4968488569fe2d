// Package main hosts the cyclerprep CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then
// hands exports to internal/prepare. Keep this package lean: new behaviour
// belongs in the internal packages first and is only surfaced here.
package main
