// Package batch fans many route requests out over a bounded worker pool.
//
// Each route goes through the orchestrator's full request flow (cache
// revalidation, interceptors, retries), so a batch is simply many independent
// orchestrations running in parallel:
//
//	fetcher := batch.NewFetcher(routeClient, batch.DefaultConfig())
//	results, err := fetcher.FetchAll(ctx, routes)
//	for _, r := range results {
//	    if r.Error == nil {
//	        use(r.Data)
//	    }
//	}
//
// The fetcher:
//   - Spawns a worker pool (default 10 workers)
//   - Applies a per-route timeout
//   - Returns one Result per route, in input order
//   - Keeps partial data when some routes fail
package batch
