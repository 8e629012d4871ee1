package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is the cache level shared by every instance of the service.
type CacheProvider interface {
	// Get returns the value with its remaining lifetime, which is zero when
	// the entry does not expire. It returns ErrCacheMiss when key is absent.
	Get(ctx context.Context, key string) ([]byte, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheTier selects the lifetime and capacity of a memoized result.
type CacheTier string

const (
	// CacheTierHot holds volatile aggregates (minutes).
	CacheTierHot CacheTier = "HOT"
	// CacheTierWarm holds expensive AI advice.
	CacheTierWarm CacheTier = "WARM"
	// CacheTierCold holds near-static reference data.
	CacheTierCold CacheTier = "COLD"
)

// ResultCache memoizes encoded feature results by tier. Implementations
// are safe for concurrent use; concurrent writers of one key race and the
// last one wins.
type ResultCache interface {
	Get(ctx context.Context, tier CacheTier, key string) ([]byte, bool)
	Set(ctx context.Context, tier CacheTier, key string, value []byte)
	Delete(ctx context.Context, key string)
}
