package providers

import "context"

// RateProfile selects the bucket size and refill rate of a limiter.
type RateProfile string

const (
	// RateProfileStrict guards AI and authentication routes.
	RateProfileStrict RateProfile = "STRICT"
	// RateProfileDefault guards everything else.
	RateProfileDefault RateProfile = "DEFAULT"
)

// RateLimiter takes one token for key and returns a RATE_LIMITED error when
// the bucket is empty.
type RateLimiter interface {
	Check(ctx context.Context, profile RateProfile, key string) error
}
