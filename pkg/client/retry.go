package client

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Retrier decides whether a failed attempt is retried. attempt is the number
// of retries already performed for route; it is 0 after the first failure.
type Retrier interface {
	ShouldRetry(ctx context.Context, route Route, err error, attempt int) bool
}

// RetrierFunc adapts a function to Retrier.
type RetrierFunc func(ctx context.Context, route Route, err error, attempt int) bool

// ShouldRetry implements Retrier.
func (f RetrierFunc) ShouldRetry(ctx context.Context, route Route, err error, attempt int) bool {
	return f(ctx, route, err, attempt)
}

// NoRetry never retries. It is the default policy.
type NoRetry struct{}

// ShouldRetry implements Retrier.
func (NoRetry) ShouldRetry(context.Context, Route, error, int) bool { return false }

// MaxRetries authorizes exactly n retries per route, without delay and
// regardless of the error.
func MaxRetries(n int) Retrier {
	return RetrierFunc(func(_ context.Context, _ Route, _ error, attempt int) bool {
		return attempt < n
	})
}

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the appropriate retry configuration for an error class.
func RetryConfigForErrorClass(errorClass ErrorClass) RetryConfig {
	switch errorClass {
	case ErrorClassServer:
		// 5xx server errors - shorter backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassRateLimit:
		// 429 - longer backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassNetwork:
		// Network errors - medium backoff
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	default:
		return DefaultRetryConfig()
	}
}

// BackoffRetrier retries server, rate limit and network failures with
// jittered exponential backoff. Client and interceptor failures are never
// retried. ShouldRetry sleeps for the backoff before returning true and
// returns false if ctx is cancelled while waiting.
type BackoffRetrier struct {
	configFor func(ErrorClass) RetryConfig
	logger    zerolog.Logger
}

// NewBackoffRetrier uses cfg for every error class.
func NewBackoffRetrier(cfg RetryConfig) *BackoffRetrier {
	return &BackoffRetrier{
		configFor: func(ErrorClass) RetryConfig { return cfg },
		logger:    log.With().Str("component", "routecache-retry").Logger(),
	}
}

// NewClassBackoffRetrier uses RetryConfigForErrorClass.
func NewClassBackoffRetrier() *BackoffRetrier {
	return &BackoffRetrier{
		configFor: RetryConfigForErrorClass,
		logger:    log.With().Str("component", "routecache-retry").Logger(),
	}
}

// ShouldRetry implements Retrier.
func (b *BackoffRetrier) ShouldRetry(ctx context.Context, route Route, err error, attempt int) bool {
	errorClass := ClassifyError(err)
	if !shouldRetry(errorClass) {
		return false
	}

	config := b.configFor(errorClass)
	if attempt+1 >= config.MaxAttempts {
		retryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
		b.logger.Warn().
			Str("error_class", string(errorClass)).
			Int("max_attempts", config.MaxAttempts).
			Str("path", route.Path()).
			Msg("Retry attempts exhausted")
		return false
	}

	retriesTotal.WithLabelValues(string(errorClass)).Inc()

	// Add jitter (±20% randomness)
	backoff := backoffFor(config, attempt)
	jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
	retryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

	b.logger.Debug().
		Str("error_class", string(errorClass)).
		Int("attempt", attempt+1).
		Dur("backoff", jitter).
		Msg("Retrying request after backoff")

	timer := time.NewTimer(jitter)
	defer timer.Stop()

	// Wait with context cancellation support
	select {
	case <-ctx.Done():
		b.logger.Warn().
			Str("error_class", string(errorClass)).
			Int("attempt", attempt+1).
			Msg("Context cancelled during retry backoff")
		return false
	case <-timer.C:
		return true
	}
}

// backoffFor returns InitialBackoff * BackoffMultiplier^attempt, capped at MaxBackoff.
func backoffFor(config RetryConfig, attempt int) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffMultiplier, float64(attempt))
	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		return config.MaxBackoff
	}
	return time.Duration(backoff)
}
