// Package client provides the route orchestrator: it builds HTTP requests from
// Route descriptions, revalidates cached responses with ETags, and applies
// interceptor and retry policies.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/routecache/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client configuration.
type Config struct {
	// Transport executes requests (default: http.Client with a 30s timeout)
	Transport Doer

	// Cache stores ETag-validated responses (REQUIRED)
	Cache *cache.Coordinator

	// Interceptor runs before every transmission (default: NopInterceptor)
	Interceptor Interceptor

	// Retrier decides on retries after failed attempts (default: NoRetry)
	Retrier Retrier

	// Monitor observes transmissions (optional)
	Monitor EventMonitor

	// DefaultMode is used by Request (default: Remote)
	DefaultMode RequestType

	// UserAgent is set on requests that do not carry one (optional)
	UserAgent string

	// Logger overrides the component logger (optional)
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration using coordinator and defaults for
// everything else.
func DefaultConfig(coordinator *cache.Coordinator) Config {
	return Config{
		Transport: &http.Client{
			Timeout: 30 * time.Second,
		},
		Cache:       coordinator,
		Interceptor: NopInterceptor{},
		Retrier:     NoRetry{},
		DefaultMode: Remote,
	}
}

// Client is the route orchestrator. It is safe for concurrent use.
type Client[R Routable] struct {
	transport   Doer
	cache       *cache.Coordinator
	interceptor Interceptor
	retrier     Retrier
	monitor     EventMonitor
	mode        RequestType
	userAgent   string
	attempts    *AttemptCounter[R]
	logger      zerolog.Logger
}

// New creates a new client.
func New[R Routable](cfg Config) (*Client[R], error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache coordinator is required")
	}
	if cfg.DefaultMode.kind < kindRemote || cfg.DefaultMode.kind > kindDelayedStub {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRequestType, cfg.DefaultMode)
	}

	c := &Client[R]{
		transport:   cfg.Transport,
		cache:       cfg.Cache,
		interceptor: cfg.Interceptor,
		retrier:     cfg.Retrier,
		monitor:     cfg.Monitor,
		mode:        cfg.DefaultMode,
		userAgent:   cfg.UserAgent,
		attempts:    NewAttemptCounter[R](),
	}

	if c.transport == nil {
		c.transport = &http.Client{Timeout: 30 * time.Second}
	}
	if c.interceptor == nil {
		c.interceptor = NopInterceptor{}
	}
	if c.retrier == nil {
		c.retrier = NoRetry{}
	}
	if c.monitor == nil {
		c.monitor = nopMonitor{}
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	} else {
		c.logger = log.With().Str("component", "routecache-client").Logger()
	}

	return c, nil
}

// Request serves route with the configured default request type.
func (c *Client[R]) Request(ctx context.Context, route R) ([]byte, error) {
	return c.RequestWithMode(ctx, route, c.mode)
}

// RequestWithMode serves route with the given request type.
func (c *Client[R]) RequestWithMode(ctx context.Context, route R, mode RequestType) ([]byte, error) {
	startTime := time.Now()

	var data []byte
	var err error
	switch mode.kind {
	case kindRemote:
		data, err = c.remote(ctx, route)
	case kindCacheOnly:
		data, err = c.cached(ctx, route)
	case kindStub, kindDelayedStub:
		data, err = c.stub(ctx, route, mode)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedRequestType, mode)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	requestsTotal.WithLabelValues(mode.String(), status).Inc()
	requestDuration.WithLabelValues(mode.String()).Observe(time.Since(startTime).Seconds())

	return data, err
}

// ClearAll wipes both cache tiers.
func (c *Client[R]) ClearAll(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// Attempts returns the number of retries performed for route so far. The
// count lives as long as the client; see ResetAttempts.
func (c *Client[R]) Attempts(route R) int {
	return c.attempts.Get(route)
}

// ResetAttempts restores the full retry budget of route.
func (c *Client[R]) ResetAttempts(route R) {
	c.attempts.Reset(route)
}

// Cache returns the cache coordinator.
func (c *Client[R]) Cache() *cache.Coordinator {
	return c.cache
}

// remote sends the request, consulting and updating the cache when the
// route's method enables ETags. Lookup, transmission and write-back happen in
// that order for every call.
func (c *Client[R]) remote(ctx context.Context, route R) ([]byte, error) {
	req, err := BuildRequest(ctx, route)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	method := route.Method()
	key := req.URL.String()

	var cached *cache.Entry
	if method.ETagEnabled() {
		cached, err = c.cache.Get(ctx, key, method.DiskCacheEnabled())
		if err != nil {
			// Expected on the first request for a resource.
			c.logger.Debug().Err(err).Str("url", key).Msg("No cached entry, sending unconditional request")
			cached = nil
		}
	}

	for {
		data, err := c.transmit(ctx, req, method, key, cached)
		if err == nil {
			return data, nil
		}

		errClass := ClassifyError(err)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		if ctx.Err() != nil {
			return nil, err
		}

		attempt := c.attempts.Get(route)
		if !c.retrier.ShouldRetry(ctx, route, err, attempt) {
			c.logger.Error().
				Err(err).
				Str("url", key).
				Str("method", method.Name()).
				Str("error_class", string(errClass)).
				Int("attempt", attempt).
				Msg("Request failed")
			return nil, err
		}

		attempt = c.attempts.Increment(route)
		c.logger.Debug().
			Str("url", key).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Msg("Retrying request")
	}
}

// transmit runs one attempt on a fresh clone of req.
func (c *Client[R]) transmit(ctx context.Context, req *http.Request, method Method, key string, cached *cache.Entry) ([]byte, error) {
	attemptReq := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestBuild, err)
		}
		attemptReq.Body = body
	}

	if method.ETagEnabled() && cache.ShouldMakeConditionalRequest(cached) {
		cache.AddConditionalHeaders(attemptReq, cached)
		ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("url", key).
			Str("etag", cached.ETag).
			Msg("Making conditional request")
	}

	attemptReq, err := c.interceptor.Intercept(attemptReq)
	if err != nil {
		return nil, &InterceptorError{Err: err}
	}
	if attemptReq == nil {
		return nil, &InterceptorError{Err: errNilRequest}
	}

	c.monitor.RequestStarted(attemptReq)
	resp, err := c.transport.Do(attemptReq)
	if err != nil {
		c.monitor.RequestFinished(attemptReq, resp, nil, err)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, &TransportError{Err: err, Response: resp}
	}
	if resp == nil {
		c.monitor.RequestFinished(attemptReq, nil, nil, ErrNoResponse)
		return nil, ErrNoResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.monitor.RequestFinished(attemptReq, resp, body, err)
	if err != nil {
		return nil, &TransportError{Err: err, Response: resp}
	}

	switch {
	case resp.StatusCode == http.StatusNotModified && cached != nil:
		NotModifiedResponses.Inc()
		c.logger.Debug().Str("url", key).Msg("304 Not Modified - using cache")
		return cached.Data, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if method.ETagEnabled() {
			c.writeBack(ctx, key, cache.NewEntry(body, cache.ValidatorFromHeader(resp.Header)), method.DiskCacheEnabled())
		}
		return body, nil

	default:
		errClass := classifyStatus(resp.StatusCode)
		c.logger.Warn().
			Str("url", key).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Unexpected response status")
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Status:     resp.Status,
			Body:       body,
		}
	}
}

// writeBack persists a fresh response. It is detached from ctx so a caller
// cancelling after the response arrived never interrupts a disk write.
// Failures are logged only.
func (c *Client[R]) writeBack(ctx context.Context, key string, entry *cache.Entry, diskEnabled bool) {
	if err := c.cache.Save(context.WithoutCancel(ctx), key, entry, diskEnabled); err != nil {
		c.logger.Warn().Err(err).Str("url", key).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().
		Str("url", key).
		Str("etag", entry.ETag).
		Bool("disk", diskEnabled).
		Msg("Cached response")
}

// cached serves route from the cache without touching the network.
func (c *Client[R]) cached(ctx context.Context, route R) ([]byte, error) {
	req, err := BuildRequest(ctx, route)
	if err != nil {
		return nil, err
	}
	entry, err := c.cache.Get(ctx, req.URL.String(), route.Method().DiskCacheEnabled())
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// stub returns the route's sample data, after the delay for DelayedStub.
func (c *Client[R]) stub(ctx context.Context, route R, mode RequestType) ([]byte, error) {
	switch mode.kind {
	case kindStub:
		return cloneBytes(route.SampleData()), nil

	case kindDelayedStub:
		timer := time.NewTimer(mode.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return cloneBytes(route.SampleData()), nil
		}

	default:
		return nil, fmt.Errorf("%w: %s on stub path", ErrUnsupportedRequestType, mode)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// IsCacheMiss reports whether err is a cache miss, e.g. from a CacheOnly request.
func IsCacheMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}
