package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per route request
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// Requester serves one route. *client.Client[R] implements it.
type Requester[R any] interface {
	Request(ctx context.Context, route R) ([]byte, error)
}

// Result is the outcome for the route at Index of the input slice.
type Result[R any] struct {
	Index int
	Route R
	Data  []byte
	Error error
}

// Fetcher runs many route requests in parallel.
type Fetcher[R any] struct {
	requester Requester[R]
	config    Config
	logger    zerolog.Logger
}

// NewFetcher creates a new batch fetcher
func NewFetcher[R any](requester Requester[R], config Config) *Fetcher[R] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Fetcher[R]{
		requester: requester,
		config:    config,
		logger:    log.With().Str("component", "routecache-batch").Logger(),
	}
}

// FetchAll requests every route and returns one result per route in input
// order. Routes not started because ctx was cancelled carry ctx's error.
// The returned error joins all per-route failures; results are complete
// (partial data included) either way.
func (f *Fetcher[R]) FetchAll(ctx context.Context, routes []R) ([]Result[R], error) {
	start := time.Now()
	results := make([]Result[R], len(routes))
	if len(routes) == 0 {
		return results, nil
	}

	queue := make(chan int, len(routes))
	for i := range routes {
		queue <- i
	}
	close(queue)

	workers := min(f.config.MaxConcurrency, len(routes))

	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.worker(ctx, id, routes, queue, results)
		}()
	}
	wg.Wait()

	var errs []error
	fetched := 0
	for i := range results {
		if results[i].Error != nil {
			errs = append(errs, fmt.Errorf("route %d: %w", i, results[i].Error))
			continue
		}
		fetched++
	}

	if len(errs) > 0 {
		f.logger.Warn().
			Int("fetched", fetched).
			Int("total", len(routes)).
			Dur("duration", time.Since(start)).
			Msg("Batch complete with failures - returning partial results")
		return results, fmt.Errorf("batch partial data (%d/%d routes): %w", fetched, len(routes), errors.Join(errs...))
	}

	f.logger.Info().
		Int("routes", len(routes)).
		Int("workers", workers).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return results, nil
}

// worker processes route indices from the queue. Each index is owned by
// exactly one worker, so results needs no lock.
func (f *Fetcher[R]) worker(ctx context.Context, id int, routes []R, queue <-chan int, results []Result[R]) {
	processed := 0

	for i := range queue {
		results[i] = Result[R]{Index: i, Route: routes[i]}

		if err := ctx.Err(); err != nil {
			results[i].Error = err
			continue
		}

		routeCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		data, err := f.requester.Request(routeCtx, routes[i])
		cancel()

		if err != nil {
			f.logger.Warn().
				Err(err).
				Int("worker_id", id).
				Int("index", i).
				Msg("Route fetch failed")
			results[i].Error = err
			continue
		}

		results[i].Data = data
		processed++
	}

	if processed > 0 {
		f.logger.Debug().
			Int("worker_id", id).
			Int("routes_processed", processed).
			Msg("Worker completed")
	}
}
