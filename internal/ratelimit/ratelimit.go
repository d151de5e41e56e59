package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProviderLimiter enforces a minimum delay between consecutive requests
// to the same provider. Adapters call Wait before every page request, so
// the limiter doubles as the inter-page pagination delay: continuation
// tokens need the configured activation latency before reuse.
type ProviderLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: provider name
	minDelay time.Duration
}

// NewProviderLimiter creates a limiter that enforces minDelay between
// consecutive requests to the same provider.
func NewProviderLimiter(minDelay time.Duration) *ProviderLimiter {
	return &ProviderLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given provider. Returns an error if the context is cancelled while waiting.
func (r *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	r.mu.Lock()
	last, ok := r.lastCall[provider]
	now := time.Now()

	if !ok {
		// First request for this provider — no wait needed.
		r.lastCall[provider] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[provider] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", provider, ctx.Err())
	case <-time.After(remaining):
	}

	r.mu.Lock()
	r.lastCall[provider] = time.Now()
	r.mu.Unlock()

	return nil
}
