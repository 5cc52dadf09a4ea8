package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SummaryCache implements ports.SummaryCache using Redis.
type SummaryCache struct {
	client *goredis.Client
	prefix string
}

// NewSummaryCache creates a new Redis-backed summary cache.
func NewSummaryCache(client *goredis.Client) *SummaryCache {
	return &SummaryCache{
		client: client,
		prefix: "wallet:",
	}
}

// Get retrieves a cached summary by key.
// Returns nil, nil if the key does not exist.
func (c *SummaryCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis summary get: %w", err)
	}
	return val, nil
}

// Set stores a serialized summary with TTL.
func (c *SummaryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis summary set: %w", err)
	}
	return nil
}
