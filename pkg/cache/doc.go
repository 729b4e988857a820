// Package cache provides the two-tier response cache used by the route client.
//
// The cache stores opaque payloads together with an optional ETag validator,
// keyed by the resolved request URL:
//
// - MemoryTier: bounded in-process store (go-cache) with automatic reclamation
// - DiskTier: one JSON record per URL, atomic writes, size-bounded eviction
// - RedisTier / LevelDBTier: alternative durable tiers
// - Coordinator: memory -> durable lookup with promotion and concurrent clear
//
// # Basic Usage
//
//	memory := cache.NewMemoryTier(cache.DefaultMemoryConfig())
//	disk, err := cache.NewDiskTier(cache.DiskConfig{
//		Dir:      "/var/cache/myapp",
//		MaxBytes: 64 << 20,
//	}, logger)
//	if err != nil {
//		return err
//	}
//	coordinator := cache.NewCoordinator(memory, disk, logger)
//
//	entry, err := coordinator.Get(ctx, key, true)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from origin
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// Origin answers 304 if the resource is unchanged
//	}
//
// # Disk Eviction
//
// With a non-zero budget, every successful DiskTier save schedules an eviction
// pass on its own goroutine. The pass deletes records in ascending modification
// time until the directory fits the budget. Its failures are logged and never
// reach the caller of Save.
//
// # Metrics
//
//   - routecache_cache_hits_total{tier} - Cache hits
//   - routecache_cache_misses_total{tier} - Cache misses
//   - routecache_cache_errors_total{tier,operation} - Cache operation errors
//   - routecache_cache_promotions_total - Durable hits promoted to memory
//   - routecache_disk_evictions_total - Evicted disk records
//   - routecache_disk_evicted_bytes_total - Bytes reclaimed by eviction
//   - routecache_disk_size_bytes - Disk cache size at the last scan
package cache
