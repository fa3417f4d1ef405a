// Package ratelimit tracks the merchant API request quota and gates requests.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset response headers and
// keeps the resulting state in Redis so that concurrent sample processes share
// one view of the remaining quota.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyRemaining      = "merchant:quota:remaining"
	RedisKeyResetTimestamp = "merchant:quota:reset_timestamp"
	RedisKeyLastUpdate     = "merchant:quota:last_update"
)

// Response headers carrying quota information.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Thresholds for quota decisions.
const (
	// QuotaThresholdCritical blocks requests when remaining quota falls below this value.
	QuotaThresholdCritical = 5

	// QuotaThresholdWarning throttles requests when remaining quota falls below this value.
	QuotaThresholdWarning = 20

	// QuotaThresholdHealthy marks the quota as healthy at or above this value.
	QuotaThresholdHealthy = 50
)

// QuotaState is the last known request quota for the configured credentials.
type QuotaState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the quota window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= QuotaThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the API reports real numbers.
func DefaultState() *QuotaState {
	now := time.Now()
	return &QuotaState{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests must be refused until reset.
// An expired window never blocks.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < QuotaThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true in the warning band.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < QuotaThresholdWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the quota window resets, or 0.
func (s *QuotaState) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= QuotaThresholdHealthy
}
