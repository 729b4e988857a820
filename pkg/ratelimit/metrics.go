package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routecache_rate_limit_waits_total",
		Help: "Total number of requests delayed by the local token bucket",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routecache_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a token",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	budgetRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routecache_rate_limit_remaining",
		Help: "Requests remaining in the origin's current rate limit window",
	})

	budgetBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routecache_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the origin budget is critical",
	})

	budgetThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routecache_rate_limit_throttles_total",
		Help: "Total number of requests throttled because the origin budget is low",
	})
)
