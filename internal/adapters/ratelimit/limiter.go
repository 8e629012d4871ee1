package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// Profile selects the bucket size and refill rate.
type Profile = providers.RateProfile

const (
	ProfileStrict  = providers.RateProfileStrict
	ProfileDefault = providers.RateProfileDefault
)

var _ providers.RateLimiter = (*Limiter)(nil)

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps one token bucket per (profile, key). Buckets are created on
// first use and live until the process exits.
type Limiter struct {
	profiles map[Profile]config.BucketConfig
	metrics  *observability.Metrics
	now      func() time.Time

	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
}

// NewLimiter creates a limiter with the strict and default profiles of cfg
func NewLimiter(cfg config.RateLimitConfig, metrics *observability.Metrics) *Limiter {
	return &Limiter{
		profiles: map[Profile]config.BucketConfig{
			ProfileStrict:  cfg.Strict,
			ProfileDefault: cfg.Default,
		},
		metrics: metrics,
		now:     time.Now,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *Limiter) bucket(profile Profile, key string) *rate.Limiter {
	id := string(profile) + ":" + key

	l.mu.RLock()
	bucket, ok := l.buckets[id]
	l.mu.RUnlock()
	if ok {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if bucket, ok := l.buckets[id]; ok {
		return bucket
	}
	bucket = newBucket(l.profiles[profile])
	l.buckets[id] = bucket
	return bucket
}

func newBucket(cfg config.BucketConfig) *rate.Limiter {
	if cfg.RefillPerMinute <= 0 {
		return rate.NewLimiter(0, cfg.Capacity)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RefillPerMinute)), cfg.Capacity)
}

// Take consumes one token from the bucket of key under profile.
func (l *Limiter) Take(profile Profile, key string) Decision {
	bucket := l.bucket(profile, key)
	now := l.now()

	decision := Decision{Limit: bucket.Burst()}
	if bucket.AllowN(now, 1) {
		decision.Allowed = true
		decision.Remaining = int(math.Max(0, math.Floor(bucket.TokensAt(now))))
		return decision
	}

	decision.RetryAfter = retryAfter(bucket, now)
	return decision
}

// Check takes a token and returns a RATE_LIMITED error when the bucket is
// empty. Callers check before doing any model work.
func (l *Limiter) Check(ctx context.Context, profile Profile, key string) error {
	if l.Take(profile, key).Allowed {
		return nil
	}
	observability.RecordRateLimitRejection(ctx, l.metrics, string(profile))
	observability.LoggerFromContext(ctx).Warn().
		Str("profile", string(profile)).
		Str("key", key).
		Msg("rate limit exceeded")
	return apperrors.NewRateLimitError(key)
}

// Buckets returns the number of live buckets.
func (l *Limiter) Buckets() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

func retryAfter(bucket *rate.Limiter, now time.Time) time.Duration {
	limit := bucket.Limit()
	if limit <= 0 {
		return time.Minute
	}
	missing := 1 - bucket.TokensAt(now)
	if missing <= 0 {
		return time.Second
	}
	wait := time.Duration(missing / float64(limit) * float64(time.Second))
	if wait < time.Second {
		wait = time.Second
	}
	return wait.Round(time.Second)
}
