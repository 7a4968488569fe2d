// Package config loads, normalizes, and validates cyclerprep configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CYCLERPREP_LOG_LEVEL
// environment fallback. Always obtain settings through this package so
// downstream code receives expanded paths and canonical log formats.
package config
