package retry

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces calls at least Interval apart. Waiting delays the caller, it
// never drops a call.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer creates a pacer. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Interval returns the configured minimum spacing
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks until the next call is allowed
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
