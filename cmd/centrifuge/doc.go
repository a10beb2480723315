// Package main hosts the centrifuge CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies flag overrides,
// builds the logger, cache store and metadata oracle, and hands a scan root
// to the reconcile engine. Reports go to stdout; logs go to stderr.
//
// Keep this package lean: behavior belongs in the internal packages and is
// surfaced here through flags and output formatting.
package main
