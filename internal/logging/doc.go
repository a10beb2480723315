// Package logging assembles structured slog loggers and formatting helpers used
// across the reconciliation pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and release directories. Logs default to stderr;
// stdout belongs to the command reports.
package logging
