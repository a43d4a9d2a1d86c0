// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Retry is an explicit retry policy: exponential backoff from BaseDelay with
// random jitter, capped at MaxDelay, for at most MaxAttempts attempts.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the delay added as random jitter (0..1)
}

// DefaultRetry is the policy used for model-endpoint calls.
var DefaultRetry = Retry{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    30 * time.Second,
	Jitter:      0.25,
}

// Delay returns the backoff before the given attempt (0-based). It is a pure
// function of the attempt count apart from jitter.
func (r Retry) Delay(attempt int) time.Duration {
	d := r.BaseDelay << uint(attempt)
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	if r.Jitter > 0 {
		d += time.Duration(rand.Float64() * r.Jitter * float64(d))
	}
	return d
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// ceiling is reached. retryable classifies errors; a nil classifier retries
// everything.
func (r Retry) Do(ctx context.Context, retryable func(error) bool, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.Delay(attempt - 1)):
			case <-ctx.Done():
				return errors.Join(ctx.Err(), lastErr)
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
