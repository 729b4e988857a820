package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/routecache/pkg/config"
	"github.com/Sternrassler/routecache/pkg/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("ROUTECACHE_CONFIG"), "path to the YAML configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("routecache proxy failed")
	}
}

// run owns every resource it opens and releases them before returning, so
// main exits only after cleanup.
func run(configPath string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Log.LoggingConfig())
	logger := logging.NewLogger("routecache-proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := &resources{}
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Shutdown cleanup failed")
			err = errors.Join(err, closeErr)
		}
	}()

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if redisClient != nil {
		res.add(redisClient)
		logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("Connected to Redis")
	}

	coordinator, err := buildCoordinator(cfg, redisClient, res, logging.NewLogger("routecache-cache"))
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	routeClient, err := buildClient(cfg, coordinator, redisClient, logging.NewLogger("routecache-client"))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	p := &proxy{
		client:   routeClient,
		upstream: cfg.Server.Upstream,
		method:   cfg.Server.Method(),
		mode:     cfg.Server.RequestType(),
		timeout:  cfg.Server.RequestTimeout,
		logger:   logger,
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           p.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("upstream", cfg.Server.Upstream).
		Str("durable", cfg.Cache.Durable).
		Str("mode", p.mode.String()).
		Msg("Starting routecache proxy")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
