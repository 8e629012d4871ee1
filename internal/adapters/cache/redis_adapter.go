package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	redisclient "github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/redis"
)

// sharedKeyPrefix namespaces result keys so the Redis database can be
// shared with the event bus and other services.
const sharedKeyPrefix = "cds:cache:"

// RedisCache is the shared cache level backed by Redis
type RedisCache struct {
	client *redis.Client
}

var _ providers.CacheProvider = (*RedisCache)(nil)

// NewRedisCache creates a new Redis-backed shared cache
func NewRedisCache(client *redisclient.Client) *RedisCache {
	return &RedisCache{client: client.Client()}
}

// Get returns the value stored under key and its remaining TTL. Both are
// read in one transaction.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	var get *redis.StringCmd
	var pttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, sharedKeyPrefix+key)
		pttl = pipe.PTTL(ctx, sharedKeyPrefix+key)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, 0, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read shared cache: %w", err)
	}

	value, err := get.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read shared cache: %w", err)
	}
	// PTTL answers a negative sentinel for keys without expiry.
	ttl := pttl.Val()
	if ttl < 0 {
		ttl = 0
	}
	return value, ttl, nil
}

// Set stores value under key. A non-positive ttl keeps the entry until it
// is deleted or evicted by Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, sharedKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write shared cache: %w", err)
	}
	return nil
}

// Delete removes keys
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = sharedKeyPrefix + key
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete from shared cache: %w", err)
	}
	return nil
}
