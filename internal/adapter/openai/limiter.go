package openai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// limiter serializes model-endpoint calls under a sliding request-count
// window and a concurrent-in-flight cap. Callers block until a slot in both
// is free.
type limiter struct {
	mu     sync.Mutex
	stamps []time.Time
	limit  int
	window time.Duration

	inflight *semaphore.Weighted
}

func newLimiter(requestsPerWindow int, window time.Duration, maxInFlight int) *limiter {
	return &limiter{
		limit:    requestsPerWindow,
		window:   window,
		inflight: semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// acquire blocks until both a window slot and an in-flight slot are free.
// The caller must call release exactly once afterwards.
func (l *limiter) acquire(ctx context.Context) error {
	if err := l.awaitWindow(ctx); err != nil {
		return err
	}
	if err := l.inflight.Acquire(ctx, 1); err != nil {
		return err
	}
	return nil
}

func (l *limiter) release() {
	l.inflight.Release(1)
}

// awaitWindow blocks until fewer than limit requests were started within the
// trailing window, then records this request's start time.
func (l *limiter) awaitWindow(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.evict(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// evict drops stamps older than the window. Caller holds l.mu.
func (l *limiter) evict(now time.Time) {
	cut := 0
	for cut < len(l.stamps) && now.Sub(l.stamps[cut]) >= l.window {
		cut++
	}
	if cut > 0 {
		l.stamps = l.stamps[cut:]
	}
}

// used returns the number of requests counted in the current window.
func (l *limiter) used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return len(l.stamps)
}
