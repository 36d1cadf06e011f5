package anbima

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	defaultMaxElapsed  = 300 * time.Second
	defaultBackoffBase = 1 * time.Second
)

// BackoffFunc returns the delay to wait before retry number attempt (0-based).
type BackoffFunc func(attempt int) time.Duration

// RetryPolicy retries an operation with backoff until it succeeds, fails
// with a non-retryable error, or the cumulative elapsed time reaches
// MaxElapsed.
type RetryPolicy struct {
	// MaxElapsed bounds the total time spent on one logical operation,
	// including the time spent waiting between attempts.
	MaxElapsed time.Duration

	// Backoff yields the delay before each retry.
	Backoff BackoffFunc

	// Retryable decides whether an error should be retried. Defaults to IsRetryable.
	Retryable func(error) bool

	// OnRetry, if set, is called before each wait.
	OnRetry func(err error, attempt int, delay time.Duration)

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// DefaultRetryPolicy returns the policy used by Client: exponential backoff
// starting at one second, bounded by five minutes of total elapsed time,
// retrying rate-limit and transient network errors.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxElapsed: defaultMaxElapsed,
		Backoff:    ExponentialBackoff(defaultBackoffBase, 0),
		Retryable:  IsRetryable,
	}
}

// ExponentialBackoff returns a BackoffFunc computing base * 2^attempt with
// equal jitter: the delay is drawn from [d/2, d). Consecutive delays are
// therefore strictly increasing until max (if positive) is reached.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	if base <= 0 {
		base = defaultBackoffBase
	}
	return func(attempt int) time.Duration {
		return calculateBackoff(attempt, base, max, rand.Float64())
	}
}

func calculateBackoff(attempt int, base, max time.Duration, jitter float64) time.Duration {
	// Exponential backoff: base * 2^attempt
	backoff := float64(base) * math.Pow(2, float64(attempt))

	if max > 0 && backoff > float64(max) {
		backoff = float64(max)
	}
	if backoff > math.MaxInt64/2 {
		backoff = math.MaxInt64 / 2
	}

	half := backoff / 2
	return time.Duration(half + jitter*half)
}

// Do runs op until it succeeds or the policy gives up. When the budget is
// exhausted the last error is returned wrapped in a *RetryBudgetError.
func (p *RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	now := p.now
	if now == nil {
		now = time.Now
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(defaultBackoffBase, 0)
	}

	start := now()
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}

		elapsed := now().Sub(start)
		if elapsed >= p.MaxElapsed {
			return &RetryBudgetError{Attempts: attempt + 1, Elapsed: elapsed, Err: err}
		}

		// Never sleep past the budget; the final attempt happens at the deadline.
		delay := backoff(attempt)
		if remaining := p.MaxElapsed - elapsed; delay > remaining {
			delay = remaining
		}

		if p.OnRetry != nil {
			p.OnRetry(err, attempt, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry backoff interrupted: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
