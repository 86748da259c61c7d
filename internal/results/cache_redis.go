package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout kept compatible with the deployed cache.
const redisCacheKeyPrefix = "document_cache:"

// RedisCache stores result entries as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a RedisCache. Non-positive ttl falls back to
// the default 7-day window.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(fingerprint string) string { return redisCacheKeyPrefix + fingerprint }

// Get returns the cached entry for a fingerprint. Backend failures are
// returned as errors so the caller can treat them as a miss.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis cache get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt entry behaves as a miss; the next Put overwrites it.
		return Entry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, true, nil
}

// Put overwrites the entry for a fingerprint with a fresh TTL.
func (c *RedisCache) Put(ctx context.Context, fingerprint string, result json.RawMessage) error {
	entry := Entry{Result: result, CachedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(fingerprint), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache put: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
