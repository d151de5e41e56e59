package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure MemoryCache implements model.Cache.
var _ model.Cache = (*MemoryCache)(nil)

type memoryEntry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

// MemoryCache is an in-process cache backed by a mutex-guarded map.
// Expired entries are deleted lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time // replaceable for tests
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the payload for key, or a miss if absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Set stores payload under key with the given TTL, overwriting any prior
// entry regardless of whether it had expired.
func (c *MemoryCache) Set(_ context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}
