// Package config loads, normalizes, and validates centrifuge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LASTFM_API_KEY. Command-line flags are layered on top by the CLI after Load
// returns.
package config
