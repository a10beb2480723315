package logging

import (
	"context"
	"log/slog"

	"centrifuge/internal/services"
)

// Structured keys shared by every component.
const (
	FieldComponent      = "component"
	FieldStage          = "stage"
	FieldRelease        = "release"
	FieldCorrelationID  = "correlation_id"
	FieldEventType      = "event_type"
	FieldErrorHint      = "error_hint"
	FieldImpact         = "impact"
	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// WithContext returns logger tagged with the run ID, stage and release
// directory carried by ctx. Values absent from ctx are skipped.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, String(FieldStage, stage))
	}
	if dir, ok := services.ReleaseFromContext(ctx); ok {
		args = append(args, String(FieldRelease, dir))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, String(FieldCorrelationID, id))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
