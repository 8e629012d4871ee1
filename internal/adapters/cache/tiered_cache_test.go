package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	redisclient "github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/redis"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
)

func testConfig(ttl time.Duration) config.CacheConfig {
	return config.CacheConfig{
		Hot:  config.TierConfig{Size: 10, TTL: ttl},
		Warm: config.TierConfig{Size: 10, TTL: ttl},
		Cold: config.TierConfig{Size: 2, TTL: time.Hour},
	}
}

func TestTieredCache_ExpiresAfterTTL(t *testing.T) {
	c := NewTieredCache(testConfig(80*time.Millisecond), nil, nil)
	ctx := context.Background()
	key := "ai:clinic-a:CLINICAL_SUPPORT:c-1"

	c.Set(ctx, providers.CacheTierWarm, key, []byte(`{"summary":"first"}`))
	raw, ok := c.Get(ctx, providers.CacheTierWarm, key)
	require.True(t, ok)
	assert.JSONEq(t, `{"summary":"first"}`, string(raw))

	time.Sleep(120 * time.Millisecond)

	_, ok = c.Get(ctx, providers.CacheTierWarm, key)
	assert.False(t, ok)
}

func TestTieredCache_TiersAreIndependent(t *testing.T) {
	c := NewTieredCache(testConfig(time.Minute), nil, nil)
	ctx := context.Background()

	c.Set(ctx, providers.CacheTierHot, "k", []byte("hot"))

	_, ok := c.Get(ctx, providers.CacheTierWarm, "k")
	assert.False(t, ok)
	assert.Equal(t, time.Hour, c.TTL(providers.CacheTierCold))

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, providers.CacheTierHot, "k")
	assert.False(t, ok)
}

func TestTieredCache_CapacityEviction(t *testing.T) {
	c := NewTieredCache(testConfig(time.Minute), nil, nil)
	ctx := context.Background()

	c.Set(ctx, providers.CacheTierCold, "a", []byte("1"))
	c.Set(ctx, providers.CacheTierCold, "b", []byte("2"))
	c.Set(ctx, providers.CacheTierCold, "c", []byte("3"))

	_, ok := c.Get(ctx, providers.CacheTierCold, "a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len(providers.CacheTierCold))
}

func newRedisProvider(t *testing.T) (*miniredis.Miniredis, providers.CacheProvider) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return server, NewRedisCache(redisclient.NewFromRedis(client))
}

func TestTieredCache_SharedLevel(t *testing.T) {
	server, remote := newRedisProvider(t)
	ctx := context.Background()
	key := "ai:clinic-a:CRM_INSIGHT:b-1"

	writer := NewTieredCache(testConfig(2*time.Minute), remote, nil)
	writer.Set(ctx, providers.CacheTierHot, key, []byte(`{"summary":"shared"}`))

	assert.True(t, server.Exists(sharedKeyPrefix+key))
	assert.Equal(t, 2*time.Minute, server.TTL(sharedKeyPrefix+key))

	// A second process sees the entry through the shared level.
	reader := NewTieredCache(testConfig(2*time.Minute), remote, nil)
	raw, ok := reader.Get(ctx, providers.CacheTierHot, key)
	require.True(t, ok)
	assert.True(t, strings.Contains(string(raw), "shared"))

	server.FastForward(3 * time.Minute)
	_, ok = NewTieredCache(testConfig(2*time.Minute), remote, nil).Get(ctx, providers.CacheTierHot, key)
	assert.False(t, ok)
}

func TestTieredCache_SharedHitKeepsRemainingLifetime(t *testing.T) {
	server, remote := newRedisProvider(t)
	ctx := context.Background()
	key := "ai:clinic-a:EARLY_WARNING:p-1"

	writer := NewTieredCache(testConfig(2*time.Minute), remote, nil)
	writer.Set(ctx, providers.CacheTierHot, key, []byte(`{"riskLevel":"LOW"}`))

	// 30s of the shared entry are left when the reader first sees it.
	server.FastForward(90 * time.Second)
	clock := time.Now()
	reader := NewTieredCache(testConfig(2*time.Minute), remote, nil)
	reader.now = func() time.Time { return clock }

	_, ok := reader.Get(ctx, providers.CacheTierHot, key)
	require.True(t, ok)

	server.Del(sharedKeyPrefix + key)
	clock = clock.Add(20 * time.Second)
	_, ok = reader.Get(ctx, providers.CacheTierHot, key)
	assert.True(t, ok, "local copy serves within the remaining lifetime")

	clock = clock.Add(15 * time.Second)
	_, ok = reader.Get(ctx, providers.CacheTierHot, key)
	assert.False(t, ok, "local copy outlived the shared entry")
}

func TestRedisCache(t *testing.T) {
	server, remote := newRedisProvider(t)
	ctx := context.Background()

	_, _, err := remote.Get(ctx, "absent")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, remote.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, remote.Set(ctx, "b", []byte("2"), time.Minute))
	assert.Equal(t, time.Duration(0), server.TTL(sharedKeyPrefix+"a"))

	value, ttl, err := remote.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(value))
	assert.Zero(t, ttl)

	server.FastForward(20 * time.Second)
	value, ttl, err = remote.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(value))
	assert.Equal(t, 40*time.Second, ttl)

	require.NoError(t, remote.Delete(ctx, "a", "b"))
	assert.False(t, server.Exists(sharedKeyPrefix+"a"))
	assert.False(t, server.Exists(sharedKeyPrefix+"b"))
	assert.NoError(t, remote.Delete(ctx))
}
