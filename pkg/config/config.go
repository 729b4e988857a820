// Package config loads the routecache proxy configuration from YAML with
// ROUTECACHE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/routecache/pkg/cache"
	"github.com/Sternrassler/routecache/pkg/client"
	"github.com/Sternrassler/routecache/pkg/logging"
	"github.com/Sternrassler/routecache/pkg/ratelimit"
)

// Durable tier kinds.
const (
	DurableNone    = "none"
	DurableDisk    = "disk"
	DurableRedis   = "redis"
	DurableLevelDB = "leveldb"
)

// Config is the complete proxy configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Listen   string `yaml:"listen"`
	Upstream string `yaml:"upstream"`
	// UserAgent sent to the upstream.
	UserAgent string `yaml:"user_agent"`
	// Mode is the default request type ("remote", "cache_only", "stub", "delayed_stub:<dur>").
	Mode           string        `yaml:"mode"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ETag enables revalidation for proxied GETs; DiskCache also persists them.
	ETag      bool `yaml:"etag"`
	DiskCache bool `yaml:"disk_cache"`
}

type CacheConfig struct {
	Memory  MemoryConfig  `yaml:"memory"`
	Disk    DiskConfig    `yaml:"disk"`
	Durable string        `yaml:"durable"`
	Redis   RedisConfig   `yaml:"redis"`
	LevelDB LevelDBConfig `yaml:"leveldb"`
}

type MemoryConfig struct {
	MaxEntries      int           `yaml:"max_entries"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type DiskConfig struct {
	Dir string   `yaml:"dir"`
	Max ByteSize `yaml:"max"`
}

type RedisConfig struct {
	Addr   string        `yaml:"addr"`
	DB     int           `yaml:"db"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

type LevelDBConfig struct {
	Path string `yaml:"path"`
}

// RetryConfig configures the backoff retrier. MaxAttempts <= 1 disables retries.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

type RateLimitConfig struct {
	// RPS <= 0 disables the local token bucket.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// TrackBudget gates requests on the origin's X-RateLimit-* headers.
	TrackBudget bool `yaml:"track_budget"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	mem := cache.DefaultMemoryConfig()
	retry := client.DefaultRetryConfig()
	return Config{
		Server: ServerConfig{
			Listen:         ":8080",
			UserAgent:      "routecache/0.1.0",
			Mode:           "remote",
			RequestTimeout: 30 * time.Second,
			ETag:           true,
			DiskCache:      true,
		},
		Cache: CacheConfig{
			Memory: MemoryConfig{
				MaxEntries:      mem.MaxEntries,
				TTL:             mem.TTL,
				CleanupInterval: mem.CleanupInterval,
			},
			Disk: DiskConfig{
				Dir: cache.DefaultDiskDir(),
				Max: 512 << 20,
			},
			Durable: DurableDisk,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: cache.DefaultRedisPrefix,
			},
			LevelDB: LevelDBConfig{
				Path: "routecache.ldb",
			},
		},
		Retry: RetryConfig{
			MaxAttempts:    retry.MaxAttempts,
			InitialBackoff: retry.InitialBackoff,
			MaxBackoff:     retry.MaxBackoff,
			Multiplier:     retry.BackoffMultiplier,
		},
		RateLimit: RateLimitConfig{
			Burst: 1,
		},
		Log: LogConfig{
			Level:     string(logging.LevelInfo),
			MaxSizeMB: 100,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from ROUTECACHE_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("ROUTECACHE_LISTEN", &c.Server.Listen)
	setString("ROUTECACHE_UPSTREAM", &c.Server.Upstream)
	setString("ROUTECACHE_USER_AGENT", &c.Server.UserAgent)
	setString("ROUTECACHE_MODE", &c.Server.Mode)
	setString("ROUTECACHE_CACHE_DIR", &c.Cache.Disk.Dir)
	setString("ROUTECACHE_CACHE_DURABLE", &c.Cache.Durable)
	setString("ROUTECACHE_REDIS_ADDR", &c.Cache.Redis.Addr)
	setString("ROUTECACHE_LEVELDB_PATH", &c.Cache.LevelDB.Path)
	setString("ROUTECACHE_LOG_LEVEL", &c.Log.Level)
	setString("ROUTECACHE_LOG_FILE", &c.Log.File)

	if v := getenv("ROUTECACHE_CACHE_DISK_MAX"); v != "" {
		n, err := ParseBytes(v)
		if err != nil {
			return fmt.Errorf("ROUTECACHE_CACHE_DISK_MAX: %w", err)
		}
		c.Cache.Disk.Max = ByteSize(n)
	}
	if v := getenv("ROUTECACHE_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ROUTECACHE_RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RPS = rps
	}
	return nil
}

// Validate checks the configuration for the proxy.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Upstream == "" {
		errs = append(errs, errors.New("server.upstream is required"))
	} else if u, err := url.Parse(c.Server.Upstream); err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.upstream %q must be an absolute URL", c.Server.Upstream))
	}
	c.Server.Upstream = strings.TrimRight(c.Server.Upstream, "/")
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be > 0"))
	}

	if _, err := client.ParseRequestType(c.Server.Mode); err != nil {
		errs = append(errs, fmt.Errorf("server.mode: %w", err))
	}

	switch c.Cache.Durable {
	case "", DurableNone, DurableDisk, DurableRedis, DurableLevelDB:
	default:
		errs = append(errs, fmt.Errorf("cache.durable %q must be one of none, disk, redis, leveldb", c.Cache.Durable))
	}
	if c.Cache.Durable == DurableRedis {
		prefix := c.Cache.Redis.Prefix
		if prefix == "" {
			prefix = cache.DefaultRedisPrefix
		}
		if strings.HasPrefix(ratelimit.RedisKeyPrefix, prefix) {
			errs = append(errs, fmt.Errorf("cache.redis.prefix %q overlaps the rate limit keys %q", prefix, ratelimit.RedisKeyPrefix))
		}
	}
	if c.Cache.Disk.Max < 0 {
		errs = append(errs, errors.New("cache.disk.max must be >= 0"))
	}
	if c.Cache.Memory.MaxEntries < 0 {
		errs = append(errs, errors.New("cache.memory.max_entries must be >= 0"))
	}
	if c.Retry.MaxAttempts > 1 && c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry.multiplier must be >= 1"))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must be >= 0"))
	}

	return errors.Join(errs...)
}

// RequestType returns the parsed default request type.
func (c ServerConfig) RequestType() client.RequestType {
	mode, err := client.ParseRequestType(c.Mode)
	if err != nil {
		return client.Remote
	}
	return mode
}

// Method returns the method used for proxied GET routes.
func (c ServerConfig) Method() client.Method {
	var opts []client.GetOption
	if c.ETag {
		opts = append(opts, client.WithETag())
	}
	if !c.DiskCache {
		opts = append(opts, client.WithoutDiskCache())
	}
	return client.GET(opts...)
}

// TierConfig converts to the memory tier settings.
func (c MemoryConfig) TierConfig() cache.MemoryConfig {
	return cache.MemoryConfig{
		TTL:             c.TTL,
		CleanupInterval: c.CleanupInterval,
		MaxEntries:      c.MaxEntries,
	}
}

// TierConfig converts to the disk tier settings.
func (c DiskConfig) TierConfig() cache.DiskConfig {
	return cache.DiskConfig{Dir: c.Dir, MaxBytes: int64(c.Max)}
}

// TierConfig converts to the Redis tier settings.
func (c RedisConfig) TierConfig() cache.RedisConfig {
	return cache.RedisConfig{Prefix: c.Prefix, TTL: c.TTL}
}

// Retrier builds the retry policy.
func (c RetryConfig) Retrier() client.Retrier {
	if c.MaxAttempts <= 1 {
		return client.NoRetry{}
	}
	return client.NewBackoffRetrier(client.RetryConfig{
		MaxAttempts:       c.MaxAttempts,
		InitialBackoff:    c.InitialBackoff,
		MaxBackoff:        c.MaxBackoff,
		BackoffMultiplier: c.Multiplier,
	})
}

// LimiterConfig converts to the token bucket settings.
func (c RateLimitConfig) LimiterConfig() ratelimit.LimiterConfig {
	return ratelimit.LimiterConfig{RPS: c.RPS, Burst: c.Burst}
}

// LoggingConfig converts to the logger settings.
func (c LogConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Level)
	cfg.Pretty = c.Pretty
	cfg.File = c.File
	cfg.MaxSizeMB = c.MaxSizeMB
	cfg.MaxBackups = c.MaxBackups
	cfg.MaxAgeDays = c.MaxAgeDays
	cfg.Compress = c.Compress
	return cfg
}
