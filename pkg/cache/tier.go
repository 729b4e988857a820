package cache

import (
	"context"
	"errors"
	"fmt"
)

// Tier names used in logs, metrics and miss errors.
const (
	TierMemory  = "memory"
	TierDisk    = "disk"
	TierRedis   = "redis"
	TierLevelDB = "leveldb"
)

var (
	// ErrCacheMiss indicates the requested key was not found in a tier.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidKey indicates the key cannot be stored by the tier.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrEncode indicates a cache entry could not be serialized.
	ErrEncode = errors.New("encode cache entry")

	// ErrDecode indicates a stored cache record could not be deserialized.
	ErrDecode = errors.New("decode cache entry")

	// ErrDiskWrite indicates a disk tier write failed.
	ErrDiskWrite = errors.New("disk cache write failed")

	// ErrDiskClear indicates the disk tier directory could not be removed.
	ErrDiskClear = errors.New("disk cache clear failed")
)

// Tier stores and retrieves cache entries by an opaque string key.
//
// Keys are resolved absolute URLs; implementations must not rely on any structure
// beyond uniqueness. All methods must be safe for concurrent use by multiple goroutines.
type Tier interface {
	// Name identifies the tier in logs and metrics.
	Name() string

	// Save stores a copy of entry under key, replacing any previous entry.
	Save(ctx context.Context, key string, entry *Entry) error

	// Get returns a copy of the entry stored under key.
	// A missing entry is reported as *MissError.
	Get(ctx context.Context, key string) (*Entry, error)

	// Clear removes every entry held by the tier.
	Clear(ctx context.Context) error
}

// MissError reports that a tier holds no usable entry for a key.
type MissError struct {
	Tier string
	Key  string

	// Err is the underlying cause, e.g. a decode failure. Nil for plain misses.
	Err error
}

// Error implements the error interface.
func (e *MissError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s cache miss for %q: %v", e.Tier, e.Key, e.Err)
	}
	return fmt.Sprintf("%s cache miss for %q", e.Tier, e.Key)
}

// Is matches ErrCacheMiss.
func (e *MissError) Is(target error) bool {
	return target == ErrCacheMiss
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MissError) Unwrap() error {
	return e.Err
}

func missError(tier, key string, cause error) error {
	CacheMisses.WithLabelValues(tier).Inc()
	return &MissError{Tier: tier, Key: key, Err: cause}
}
