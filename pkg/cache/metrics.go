package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecache_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"tier"}, // "memory", "disk", "redis", "leveldb"
	)

	// CacheMisses tracks cache misses by tier
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecache_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"tier"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecache_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"tier", "operation"}, // "get", "save", "clear", "evict", "promote"
	)

	// CachePromotions tracks durable-tier hits copied into the memory tier
	CachePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routecache_cache_promotions_total",
			Help: "Total number of entries promoted from the durable tier to memory",
		},
	)

	// DiskEvictions tracks entries removed by the disk size budget
	DiskEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routecache_disk_evictions_total",
			Help: "Total number of disk cache entries evicted",
		},
	)

	// DiskEvictedBytes tracks bytes reclaimed by disk eviction
	DiskEvictedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routecache_disk_evicted_bytes_total",
			Help: "Total number of bytes reclaimed by disk cache eviction",
		},
	)

	// DiskSize tracks the disk tier size observed by the last eviction scan
	DiskSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "routecache_disk_size_bytes",
			Help: "Size of the disk cache in bytes as of the last eviction scan",
		},
	)
)
