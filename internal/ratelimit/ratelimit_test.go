package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_SameProvider_EnforcesMinDelay(t *testing.T) {
	limiter := NewProviderLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "serpapi"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "serpapi"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentProviders_NoCrossBlocking(t *testing.T) {
	limiter := NewProviderLimiter(200 * time.Millisecond)
	ctx := context.Background()

	// Call for serpapi.
	if err := limiter.Wait(ctx, "serpapi"); err != nil {
		t.Fatalf("serpapi wait: %v", err)
	}

	// Immediately call for jsearch — should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "jsearch"); err != nil {
		t.Fatalf("jsearch wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("expected jsearch wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewProviderLimiter(5 * time.Second) // long delay
	ctx := context.Background()

	// First call to seed the last-call time.
	if err := limiter.Wait(ctx, "serpapi"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Cancel the context before the wait completes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := limiter.Wait(ctx, "serpapi")
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}
