package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
)

type tierStore struct {
	ttl   time.Duration
	local *expirable.LRU[string, localEntry]
}

// localEntry carries its own deadline so a copy of a shared entry never
// outlives the shared one.
type localEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ providers.ResultCache = (*TieredCache)(nil)

// TieredCache memoizes feature results in three in-process TTL tiers with
// an optional shared second level. Entries are never invalidated on writes
// to clinical data; staleness is bounded by the tier TTL.
type TieredCache struct {
	tiers   map[providers.CacheTier]*tierStore
	remote  providers.CacheProvider
	metrics *observability.Metrics
	now     func() time.Time
}

// NewTieredCache creates the three tiers from cfg. remote may be nil.
func NewTieredCache(cfg config.CacheConfig, remote providers.CacheProvider, metrics *observability.Metrics) *TieredCache {
	newTier := func(t config.TierConfig) *tierStore {
		size := t.Size
		if size <= 0 {
			size = 1
		}
		return &tierStore{
			ttl:   t.TTL,
			local: expirable.NewLRU[string, localEntry](size, nil, t.TTL),
		}
	}

	return &TieredCache{
		tiers: map[providers.CacheTier]*tierStore{
			providers.CacheTierHot:  newTier(cfg.Hot),
			providers.CacheTierWarm: newTier(cfg.Warm),
			providers.CacheTierCold: newTier(cfg.Cold),
		},
		remote:  remote,
		metrics: metrics,
		now:     time.Now,
	}
}

// TTL returns the lifetime of entries in tier.
func (c *TieredCache) TTL(tier providers.CacheTier) time.Duration {
	if t, ok := c.tiers[tier]; ok {
		return t.ttl
	}
	return 0
}

// Get looks key up in the tier, then in the shared level. A shared-level
// hit is copied into the tier for no longer than the shared entry has left.
func (c *TieredCache) Get(ctx context.Context, tier providers.CacheTier, key string) ([]byte, bool) {
	t, ok := c.tiers[tier]
	if !ok {
		return nil, false
	}
	if entry, ok := t.local.Get(key); ok {
		if c.now().Before(entry.expiresAt) {
			return entry.value, true
		}
		t.local.Remove(key)
	}
	if c.remote == nil {
		return nil, false
	}

	value, remaining, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("shared cache read failed")
		}
		return nil, false
	}

	ttl := t.ttl
	if remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	t.local.Add(key, localEntry{value: value, expiresAt: c.now().Add(ttl)})
	return value, true
}

// Set stores value in the tier and the shared level. Concurrent writers of
// the same key race and the last one wins.
func (c *TieredCache) Set(ctx context.Context, tier providers.CacheTier, key string, value []byte) {
	t, ok := c.tiers[tier]
	if !ok {
		return
	}
	t.local.Add(key, localEntry{value: value, expiresAt: c.now().Add(t.ttl)})
	if c.remote == nil {
		return
	}

	if err := c.remote.Set(ctx, key, value, t.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("shared cache write failed")
	}
}

// Delete removes key from every tier and the shared level.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	for _, t := range c.tiers {
		t.local.Remove(key)
	}
	if c.remote != nil {
		if err := c.remote.Delete(ctx, key); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("shared cache delete failed")
		}
	}
}

// Len returns the number of live local entries in tier.
func (c *TieredCache) Len(tier providers.CacheTier) int {
	if t, ok := c.tiers[tier]; ok {
		return t.local.Len()
	}
	return 0
}
