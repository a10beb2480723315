package oracle

import (
	"context"
	"errors"
	"net"
	"time"

	"centrifuge/internal/services"
)

// Retry pacing for provider clients.
const (
	InitialBackoff = 500 * time.Millisecond
	MaxBackoff     = 10 * time.Second
)

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns the delay before retry attempt n (0-based), doubling from
// initial and capped at MaxBackoff.
func Backoff(initial time.Duration, attempt int) time.Duration {
	d := initial
	for i := 0; i < attempt && d < MaxBackoff; i++ {
		d *= 2
	}
	return min(d, MaxBackoff)
}

type retriable interface {
	Retriable() bool
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, server errors, timeouts and
// errors marked transient).
func IsRetriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r retriable
	if errors.As(err, &r) {
		return r.Retriable()
	}
	if errors.Is(err, context.DeadlineExceeded) || services.IsRetryable(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
