package openai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterAllowsUpToWindowLimit(t *testing.T) {
	l := newLimiter(3, time.Minute, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		l.release()
	}
	if got := l.used(); got != 3 {
		t.Fatalf("used = %d, want 3", got)
	}
}

func TestLimiterBlocksWhenWindowFull(t *testing.T) {
	l := newLimiter(1, time.Minute, 10)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	l.release()

	blockedCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := l.acquire(blockedCtx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while window is full, got %v", err)
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	l := newLimiter(2, 30*time.Millisecond, 10)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		l.release()
	}

	// After the window passes, old stamps are evicted and a new call is
	// admitted without blocking for long.
	start := time.Now()
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire after window: %v", err)
	}
	l.release()
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("acquire took too long after window slid: %v", elapsed)
	}
	if got := l.used(); got != 1 {
		t.Fatalf("used = %d after eviction, want 1", got)
	}
}

func TestLimiterInFlightCap(t *testing.T) {
	l := newLimiter(100, time.Minute, 1)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.acquire(blockedCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected in-flight cap to block, got %v", err)
	}

	l.release()
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	l.release()
}
