package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

const cacheKeyPrefix = "ai:"

// CacheKey builds the result cache key of feature for one subject. The
// tenant is always part of the key.
func CacheKey(tenantID string, feature entities.FeatureType, subjectID string) string {
	return cacheKeyPrefix + strings.Join([]string{tenantID, string(feature), subjectID}, ":")
}

type degradable interface {
	IsDegraded() bool
}

// getOrCompute returns the cached result of feature for subjectID in the
// caller's tenant, or runs compute and stores its result. Errors and
// degraded results are never stored. Concurrent misses each run compute.
func getOrCompute[T any](
	ctx context.Context,
	p *Pipeline,
	tier providers.CacheTier,
	feature entities.FeatureType,
	subjectID string,
	compute func(ctx context.Context) (*T, error),
) (*T, error) {
	if p.cache == nil || subjectID == "" {
		return compute(ctx)
	}

	key := CacheKey(tenant.TenantID(ctx), feature, subjectID)
	if raw, ok := p.cache.Get(ctx, tier, key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.RecordCacheHit(ctx, p.metrics, string(tier), string(feature))
			return &cached, nil
		}
		p.cache.Delete(ctx, key)
	}
	observability.RecordCacheMiss(ctx, p.metrics, string(tier), string(feature))

	out, err := compute(ctx)
	if err != nil || out == nil {
		return out, err
	}
	if d, ok := any(out).(degradable); ok && d.IsDegraded() {
		return out, nil
	}

	raw, err := json.Marshal(out)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to encode cached result")
		return out, nil
	}
	p.cache.Set(ctx, tier, key, raw)
	return out, nil
}
