package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/routecache/pkg/cache"
	"github.com/Sternrassler/routecache/pkg/client"
	"github.com/Sternrassler/routecache/pkg/config"
	"github.com/Sternrassler/routecache/pkg/ratelimit"
)

// resources collects everything that must be closed on shutdown.
type resources struct {
	closers []io.Closer
}

func (r *resources) add(c io.Closer) { r.closers = append(r.closers, c) }

func (r *resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// connectRedis returns a pinged client when cfg needs Redis, or nil.
func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Cache.Durable != config.DurableRedis {
		return nil, nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.Redis.Addr,
		DB:   cfg.Cache.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.Redis.Addr, err)
	}
	return redisClient, nil
}

// buildCoordinator wires the memory tier and the configured durable tier.
func buildCoordinator(cfg config.Config, redisClient *redis.Client, res *resources, logger zerolog.Logger) (*cache.Coordinator, error) {
	memory := cache.NewMemoryTier(cfg.Cache.Memory.TierConfig())

	var durable cache.Tier
	switch cfg.Cache.Durable {
	case config.DurableDisk, "":
		disk, err := cache.NewDiskTier(cfg.Cache.Disk.TierConfig(), logger)
		if err != nil {
			return nil, err
		}
		res.add(closerFunc(func() error { disk.Wait(); return nil }))
		durable = disk
	case config.DurableRedis:
		durable = cache.NewRedisTier(redisClient, cfg.Cache.Redis.TierConfig())
	case config.DurableLevelDB:
		ldb, err := cache.OpenLevelDBTier(cfg.Cache.LevelDB.Path)
		if err != nil {
			return nil, err
		}
		res.add(ldb)
		durable = ldb
	case config.DurableNone:
	}

	return cache.NewCoordinator(memory, durable, logger), nil
}

// buildClient wires interceptors, monitors and the retry policy.
func buildClient(cfg config.Config, coordinator *cache.Coordinator, redisClient *redis.Client, logger zerolog.Logger) (*client.Client[proxyRoute], error) {
	clientCfg := client.DefaultConfig(coordinator)
	clientCfg.UserAgent = cfg.Server.UserAgent
	clientCfg.DefaultMode = cfg.Server.RequestType()
	clientCfg.Retrier = cfg.Retry.Retrier()
	clientCfg.Logger = &logger

	interceptors := []client.Interceptor{ratelimit.NewLimiter(cfg.RateLimit.LimiterConfig())}
	monitors := []client.EventMonitor{client.NewLogMonitor(logger)}

	if cfg.RateLimit.TrackBudget {
		var store ratelimit.Store = ratelimit.NewMemoryStore()
		if redisClient != nil {
			store = ratelimit.NewRedisStore(redisClient)
		}
		tracker := ratelimit.NewTracker(store, logger.With().Str("component", "routecache-ratelimit").Logger())
		interceptors = append(interceptors, tracker)
		monitors = append(monitors, tracker)
	}

	clientCfg.Interceptor = client.ChainInterceptors(interceptors...)
	clientCfg.Monitor = client.MultiMonitor(monitors...)

	return client.New[proxyRoute](clientCfg)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
