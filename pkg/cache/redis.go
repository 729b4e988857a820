package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces RedisTier keys. Clear only scans this
// namespace, so other routecache state in the same database survives.
const DefaultRedisPrefix = "routecache:cache:"

// RedisConfig holds Redis tier settings.
type RedisConfig struct {
	// Prefix is prepended to every key (default DefaultRedisPrefix)
	Prefix string

	// TTL of stored entries (0 = no expiry)
	TTL time.Duration
}

// RedisTier stores entries in Redis so several processes can share one
// durable tier. It can take the durable slot of a Coordinator.
type RedisTier struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTier creates a Redis-backed tier.
func NewRedisTier(redisClient *redis.Client, cfg RedisConfig) *RedisTier {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisTier{
		redis:  redisClient,
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

// Name implements Tier.
func (r *RedisTier) Name() string { return TierRedis }

func (r *RedisTier) redisKey(key string) string {
	return r.prefix + key
}

// Save implements Tier.
func (r *RedisTier) Save(ctx context.Context, key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		CacheErrors.WithLabelValues(TierRedis, "save").Inc()
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		CacheErrors.WithLabelValues(TierRedis, "save").Inc()
		return err
	}

	if err := r.redis.Set(ctx, r.redisKey(key), data, r.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(TierRedis, "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get implements Tier.
func (r *RedisTier) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := r.redis.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, missError(TierRedis, key, nil)
		}
		CacheErrors.WithLabelValues(TierRedis, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		CacheErrors.WithLabelValues(TierRedis, "get").Inc()
		return nil, missError(TierRedis, key, err)
	}

	CacheHits.WithLabelValues(TierRedis).Inc()
	return entry, nil
}

// Clear implements Tier. Only keys under the tier's prefix are removed.
func (r *RedisTier) Clear(ctx context.Context) error {
	iter := r.redis.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.redis.Del(ctx, batch...).Err(); err != nil {
				CacheErrors.WithLabelValues(TierRedis, "clear").Inc()
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues(TierRedis, "clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := r.redis.Del(ctx, batch...).Err(); err != nil {
			CacheErrors.WithLabelValues(TierRedis, "clear").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}
