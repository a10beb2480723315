package oracle

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate bounds external calls: at most maxConcurrent in flight and a sustained
// rate of requestsPerSecond. Waiters queue; they never fail except on
// context cancellation.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGate builds a gate. A non-positive rate disables the token bucket.
func NewGate(maxConcurrent int, requestsPerSecond float64) *Gate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Gate{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Acquire blocks until a call may proceed. The returned func releases the
// concurrency slot and must be called exactly once.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		g.sem.Release(1)
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}
