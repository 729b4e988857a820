// Package metrics exposes the Prometheus registry used by routecache.
// All metrics are defined in their respective packages (cache, client,
// ratelimit) and registered through promauto; this package serves them and
// documents the catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by routecache.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - routecache_cache_hits_total{tier} (Counter): Cache hits by tier
//   - routecache_cache_misses_total{tier} (Counter): Cache misses by tier
//   - routecache_cache_errors_total{tier, operation} (Counter): Tier operation errors
//   - routecache_cache_promotions_total (Counter): Durable hits promoted into memory
//   - routecache_disk_evictions_total (Counter): Disk records evicted over budget
//   - routecache_disk_evicted_bytes_total (Counter): Bytes reclaimed by eviction
//   - routecache_disk_size_bytes (Gauge): Disk tier size after the last eviction pass
//
// Request Metrics (pkg/client):
//   - routecache_requests_total{mode, status} (Counter): Requests by request type and outcome
//   - routecache_request_duration_seconds{mode} (Histogram): Request duration by request type
//   - routecache_errors_total{class} (Counter): Attempt failures by class
//   - routecache_304_responses_total (Counter): 304 Not Modified responses
//   - routecache_conditional_requests_total (Counter): Requests sent with If-None-Match
//
// Retry Metrics (pkg/client):
//   - routecache_retries_total{error_class} (Counter): Retry attempts by error class
//   - routecache_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - routecache_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - routecache_rate_limit_waits_total (Counter): Requests delayed by the token bucket
//   - routecache_rate_limit_wait_seconds (Histogram): Token wait duration
//   - routecache_rate_limit_remaining (Gauge): Origin budget remaining in the current window
//   - routecache_rate_limit_blocks_total (Counter): Requests blocked on a critical budget
//   - routecache_rate_limit_throttles_total (Counter): Requests throttled on a low budget
//
// Example Prometheus Queries:
//
//   # Memory hit rate
//   rate(routecache_cache_hits_total{tier="memory"}[5m]) /
//   (rate(routecache_cache_hits_total{tier="memory"}[5m]) + rate(routecache_cache_misses_total{tier="memory"}[5m]))
//
//   # Revalidation rate
//   rate(routecache_304_responses_total[5m]) / rate(routecache_conditional_requests_total[5m])
//
//   # P95 remote latency
//   histogram_quantile(0.95, rate(routecache_request_duration_seconds_bucket{mode="remote"}[5m]))
