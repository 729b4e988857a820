package ratelimit

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures the local token bucket.
type LimiterConfig struct {
	// RPS is the sustained request rate (<= 0 disables limiting)
	RPS float64

	// Burst is the bucket size (minimum 1)
	Burst int
}

// Limiter delays requests so they leave at most at the configured rate.
// It implements the route client's Interceptor.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a token bucket limiter.
func NewLimiter(cfg LimiterConfig) *Limiter {
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Intercept waits for a token bound to the request's context. A cancelled
// context, or a deadline that cannot be met, fails the attempt.
func (l *Limiter) Intercept(req *http.Request) (*http.Request, error) {
	start := time.Now()
	if err := l.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if waited := time.Since(start); waited > time.Millisecond {
		rateLimitWaitsTotal.Inc()
		rateLimitWaitSeconds.Observe(waited.Seconds())
	}
	return req, nil
}
