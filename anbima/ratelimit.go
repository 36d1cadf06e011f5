package anbima

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimiter is an optional local token bucket that spaces requests out
// before the API has to answer with 429. A nil limiter never waits.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter allows perMinute requests per minute with a burst of the
// same size. Non-positive values disable limiting.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	limit := rate.Limit(float64(perMinute) / 60.0)
	return &rateLimiter{limiter: rate.NewLimiter(limit, perMinute)}
}

// Wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}
