// Package ratelimit gates outgoing requests.
//
// Limiter is a local token bucket. Tracker follows the origin's own budget as
// advertised by X-RateLimit-Remaining / X-RateLimit-Reset (and Retry-After on
// 429), optionally shared between processes through Redis. Both plug into
// the route client as interceptors; Tracker also acts as its event monitor
// to read response headers.
package ratelimit

import (
	"time"
)

// Response headers read by Tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Redis keys for shared budget state. A cache tier sharing the same Redis
// must use a prefix that does not cover RedisKeyPrefix.
const (
	RedisKeyPrefix         = "routecache:rate_limit:"
	RedisKeyRemaining      = RedisKeyPrefix + "remaining"
	RedisKeyResetTimestamp = RedisKeyPrefix + "reset_timestamp"
	RedisKeyLastUpdate     = RedisKeyPrefix + "last_update"
)

// Thresholds for budget decisions.
const (
	// BudgetThresholdCritical blocks all requests when remaining falls below this value.
	BudgetThresholdCritical = 5

	// BudgetThresholdWarning applies throttling when remaining falls below this value.
	BudgetThresholdWarning = 20

	// BudgetThresholdHealthy indicates normal operation.
	BudgetThresholdHealthy = 50
)

// State represents the origin's current request budget.
type State struct {
	// Remaining is the number of requests the origin still allows in the window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= BudgetThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// defaultState is assumed until the origin reports a budget.
func defaultState() *State {
	now := time.Now()
	return &State{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked. An expired
// window no longer blocks.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < BudgetThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be throttled.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < BudgetThresholdWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= BudgetThresholdHealthy
}
