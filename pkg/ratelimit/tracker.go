package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ErrBudgetExhausted is returned by Tracker.Intercept while the origin's
// budget is critical.
var ErrBudgetExhausted = errors.New("origin rate limit budget exhausted")

// DefaultThrottleDelay is the pause applied in the warning range.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors the origin's rate limit budget and gates requests.
type Tracker struct {
	store         Store
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new budget tracker. A nil store keeps state in memory.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides DefaultThrottleDelay.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current budget, or a default healthy state if the
// origin has not reported one yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state stored, returning default healthy state")
		return defaultState(), nil
	}
	return state, nil
}

// UpdateFromHeaders records the budget advertised by a response. Responses
// without rate limit headers are ignored. A 429 with Retry-After empties the
// budget until the given time.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, status int, headers http.Header) error {
	now := time.Now()
	var state *State

	if status == http.StatusTooManyRequests && headers.Get(HeaderRetryAfter) != "" {
		wait, err := parseRetryAfter(headers.Get(HeaderRetryAfter), now)
		if err != nil {
			return err
		}
		state = &State{Remaining: 0, ResetAt: now.Add(wait), LastUpdate: now}
	} else {
		remainStr := headers.Get(HeaderRemaining)
		if remainStr == "" {
			return nil
		}

		remain, err := strconv.Atoi(remainStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
		}

		resetStr := headers.Get(HeaderReset)
		if resetStr == "" {
			return fmt.Errorf("%s header missing", HeaderReset)
		}
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}

		state = &State{
			Remaining:  remain,
			ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
			LastUpdate: now,
		}
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	budgetRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Origin rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Origin rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Origin rate limit state updated")
	}

	return nil
}

func parseRetryAfter(value string, now time.Time) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return time.Duration(seconds) * time.Second, nil
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
	}
	if d := at.Sub(now); d > 0 {
		return d, nil
	}
	return 0, nil
}

// ShouldAllowRequest reports whether a request may be sent now. In the
// warning range it first sleeps for the throttle delay, aborting early if
// ctx is cancelled.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Origin rate limit critical - blocking request")
		budgetBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Origin rate limit warning - throttling request")
		budgetThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}

// Intercept implements the route client's Interceptor.
func (t *Tracker) Intercept(req *http.Request) (*http.Request, error) {
	allowed, err := t.ShouldAllowRequest(req.Context())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrBudgetExhausted
	}
	return req, nil
}

// RequestStarted implements the route client's EventMonitor.
func (t *Tracker) RequestStarted(*http.Request) {}

// RequestFinished implements the route client's EventMonitor by feeding the
// response headers into UpdateFromHeaders.
func (t *Tracker) RequestFinished(req *http.Request, resp *http.Response, _ []byte, _ error) {
	if resp == nil {
		return
	}
	ctx := context.WithoutCancel(req.Context())
	if err := t.UpdateFromHeaders(ctx, resp.StatusCode, resp.Header); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}
}
