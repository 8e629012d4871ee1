package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

func testLimiter(capacity, perMinute int) *Limiter {
	return NewLimiter(config.RateLimitConfig{
		Strict:  config.BucketConfig{Capacity: capacity, RefillPerMinute: perMinute},
		Default: config.BucketConfig{Capacity: 100, RefillPerMinute: 100},
	}, nil)
}

func TestLimiter_StrictBucketExhausts(t *testing.T) {
	limiter := testLimiter(5, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Check(ctx, ProfileStrict, "branch-1"), "call %d", i+1)
	}

	err := limiter.Check(ctx, ProfileStrict, "branch-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRateLimitExceeded))
	assert.False(t, errors.Is(err, apperrors.ErrModelInvocation))
}

func TestLimiter_Refills(t *testing.T) {
	limiter := testLimiter(5, 5)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Take(ProfileStrict, "k").Allowed)
	}
	denied := limiter.Take(ProfileStrict, "k")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 5, denied.Limit)
	assert.Equal(t, 12*time.Second, denied.RetryAfter)

	now = now.Add(13 * time.Second)
	assert.True(t, limiter.Take(ProfileStrict, "k").Allowed)
	assert.False(t, limiter.Take(ProfileStrict, "k").Allowed)
}

func TestLimiter_KeysAndProfilesAreIndependent(t *testing.T) {
	limiter := testLimiter(1, 1)

	assert.True(t, limiter.Take(ProfileStrict, "a").Allowed)
	assert.False(t, limiter.Take(ProfileStrict, "a").Allowed)
	assert.True(t, limiter.Take(ProfileStrict, "b").Allowed)
	assert.True(t, limiter.Take(ProfileDefault, "a").Allowed)
	assert.Equal(t, 3, limiter.Buckets())
}

func TestLimiter_ConcurrentFirstAccessCreatesOneBucket(t *testing.T) {
	limiter := testLimiter(50, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Take(ProfileStrict, "shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, limiter.Buckets())
	assert.Equal(t, 50, allowed)
}

func TestLimiter_ManyKeys(t *testing.T) {
	limiter := testLimiter(1, 1)
	for i := 0; i < 20; i++ {
		assert.True(t, limiter.Take(ProfileDefault, fmt.Sprintf("10.0.0.%d", i)).Allowed)
	}
	assert.Equal(t, 20, limiter.Buckets())
}
