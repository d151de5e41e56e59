package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure RedisCache implements model.Cache.
var _ model.Cache = (*RedisCache)(nil)

// keyPrefix namespaces our entries inside a shared Redis instance.
const keyPrefix = "jobagent:"

// RedisCache stores cache entries in Redis, relying on native key TTLs
// for expiry.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses redisURL, verifies connectivity, and returns the cache.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get returns the payload for key, or a miss if absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return json.RawMessage(val), true, nil
}

// Set stores payload under key with the given TTL, overwriting any prior entry.
func (c *RedisCache) Set(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
