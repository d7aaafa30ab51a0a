package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces requests by a minimum interval across goroutines.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	lim *rate.Limiter
}

// NewRateLimiter returns nil for a non-positive interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return nil
	}
	return &RateLimiter{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.lim.Wait(ctx)
}
