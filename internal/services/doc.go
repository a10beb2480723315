// Package services defines shared utilities consumed by the reconciliation
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and release directories
//     for logging.
//   - Structured error markers plus the Wrap helper that separate batch-fatal
//     configuration problems from failures local to a single release.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across stages.
package services
