package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify failures. Only ErrConfiguration aborts a run; the others
// stay local to one release or one lookup.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrFilesystem      = errors.New("filesystem hazard")
	ErrExternalService = errors.New("external service error")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with "stage: operation: message",
// skipping empty parts. A nil marker means ErrTransient and a nil err yields
// a marker-only error.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// IsBatchFatal reports whether err must abort the whole run.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsRetryable reports whether repeating the operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}
