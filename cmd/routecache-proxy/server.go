package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/routecache/pkg/client"
	"github.com/Sternrassler/routecache/pkg/metrics"
	"github.com/Sternrassler/routecache/pkg/ratelimit"
)

// proxy serves upstream routes through the orchestrator.
type proxy struct {
	client   *client.Client[proxyRoute]
	upstream string
	method   client.Method
	mode     client.RequestType
	timeout  time.Duration
	logger   zerolog.Logger
}

func (p *proxy) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /fetch/{path...}", p.handleRoute(p.mode))
	mux.HandleFunc("GET /cached/{path...}", p.handleRoute(client.CacheOnly))
	mux.HandleFunc("DELETE /cache", p.handleClear)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (p *proxy) route(r *http.Request) proxyRoute {
	return proxyRoute{
		base:     p.upstream,
		path:     r.PathValue("path"),
		rawQuery: r.URL.RawQuery,
		accept:   r.Header.Get("Accept"),
		method:   p.method,
	}
}

// handleRoute serves the route named by the request path with mode.
func (p *proxy) handleRoute(mode client.RequestType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := p.route(r)

		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()

		data, err := p.client.RequestWithMode(ctx, route, mode)
		if err != nil {
			status := statusFor(err)
			p.logger.Warn().
				Err(err).
				Str("path", route.path).
				Str("mode", mode.String()).
				Int("status", status).
				Msg("Route request failed")
			http.Error(w, err.Error(), status)
			return
		}

		// The attempt counter only tracks consecutive failures of a route.
		p.client.ResetAttempts(route)

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			p.logger.Debug().Err(err).Msg("Failed to write response")
		}
	}
}

func (p *proxy) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := p.client.ClearAll(r.Context()); err != nil {
		p.logger.Error().Err(err).Msg("Cache clear failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps orchestrator failures to proxy status codes.
func statusFor(err error) int {
	switch {
	case client.IsCacheMiss(err):
		return http.StatusNotFound
	case errors.Is(err, ratelimit.ErrBudgetExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, client.ErrUnsupportedRequestType), errors.Is(err, client.ErrInvalidURL):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
