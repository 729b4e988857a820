// Package logging configures the global zerolog logger used by routecache.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// File additionally writes JSON logs to a rotating file (optional).
	File string

	// MaxSizeMB is the size at which File is rotated (default: 100).
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep (0 = all).
	MaxBackups int

	// MaxAgeDays removes rotated files older than this (0 = never).
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Pretty:    false,
		Output:    os.Stderr,
		MaxSizeMB: 100,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	// The file always receives JSON, regardless of Pretty.
	if cfg.File != "" {
		out = zerolog.MultiLevelWriter(out, NewFileWriter(cfg))
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// NewFileWriter returns the rotating writer for cfg.File.
func NewFileWriter(cfg Config) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit, miss, promotion, eviction pass)
//   - Conditional requests and ETags
//   - Monitor events, rate limit state updates (healthy)
//
// Info: Normal operation events
//   - Batch completion
//   - Server startup/shutdown
//
// Warn: Best-effort failures that don't prevent operation
//   - Promotion or write-back failures
//   - Eviction failures for single entries
//   - Retry attempts, rate limit throttling
//
// Error: Error conditions requiring attention
//   - Failed requests (after retries)
//   - Critical rate limit blocks
//   - Configuration errors
//
// Context Fields:
//   - component: routecache-client, routecache-cache, routecache-retry, ...
//   - key, tier: cache key and tier name
//   - url, method, status: request and response
//   - attempt, error_class: retry state
//   - etag: validator sent or stored
//   - duration: request or batch duration
