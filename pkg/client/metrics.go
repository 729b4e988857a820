package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routecache_requests_total",
		Help: "Total requests by request type and outcome",
	}, []string{"mode", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routecache_request_duration_seconds",
		Help:    "Request duration in seconds by request type",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"mode"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routecache_errors_total",
		Help: "Total failed attempts by error class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routecache_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routecache_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routecache_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	// NotModifiedResponses tracks 304 responses served from cache
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routecache_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})

	// ConditionalRequestsSent tracks requests carrying If-None-Match
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routecache_conditional_requests_total",
		Help: "Total number of conditional requests sent",
	})
)
