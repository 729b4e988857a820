package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Coordinator presents a memory tier and an optional durable tier as one
// logical cache with lookup priority memory -> durable.
type Coordinator struct {
	memory  Tier
	durable Tier
	logger  zerolog.Logger
}

// NewCoordinator composes the tiers. durable may be nil, in which case
// disk-enabled operations only touch memory.
func NewCoordinator(memory, durable Tier, logger zerolog.Logger) *Coordinator {
	if memory == nil {
		panic("memory tier cannot be nil")
	}
	return &Coordinator{
		memory:  memory,
		durable: durable,
		logger:  logger,
	}
}

// NewDefaultCoordinator builds a Coordinator over a default memory tier and
// a disk tier in dir with the given budget.
func NewDefaultCoordinator(dir string, maxBytes int64) (*Coordinator, error) {
	logger := defaultLogger()
	disk, err := NewDiskTier(DiskConfig{Dir: dir, MaxBytes: maxBytes}, logger)
	if err != nil {
		return nil, err
	}
	return NewCoordinator(NewMemoryTier(DefaultMemoryConfig()), disk, logger), nil
}

// Memory returns the memory tier.
func (c *Coordinator) Memory() Tier { return c.memory }

// Durable returns the durable tier, or nil.
func (c *Coordinator) Durable() Tier { return c.durable }

// Get looks key up in memory, then in the durable tier when diskEnabled.
// A durable hit is promoted into memory on a best-effort basis. When both
// tiers miss, the memory tier's miss error is returned.
func (c *Coordinator) Get(ctx context.Context, key string, diskEnabled bool) (*Entry, error) {
	entry, memErr := c.memory.Get(ctx, key)
	if memErr == nil {
		c.logger.Debug().Str("key", key).Str("tier", c.memory.Name()).Msg("Cache hit")
		return entry, nil
	}
	if !diskEnabled || c.durable == nil {
		return nil, memErr
	}

	entry, err := c.durable.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, memErr
		}
		return nil, err
	}

	if err := c.memory.Save(ctx, key, entry); err != nil {
		CacheErrors.WithLabelValues(c.memory.Name(), "promote").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Durable cache hit but promotion to memory failed")
	} else {
		CachePromotions.Inc()
	}

	c.logger.Debug().Str("key", key).Str("tier", c.durable.Name()).Msg("Cache hit")
	return entry, nil
}

// Save stores entry in memory and, when diskEnabled, in the durable tier.
// Both saves are always attempted. Failures are logged and returned joined;
// the cache is advisory, so callers decide whether a failure matters.
func (c *Coordinator) Save(ctx context.Context, key string, entry *Entry, diskEnabled bool) error {
	var errs []error

	if err := c.memory.Save(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Str("tier", c.memory.Name()).Msg("Cache save failed")
		errs = append(errs, err)
	}

	if diskEnabled && c.durable != nil {
		if err := c.durable.Save(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Str("tier", c.durable.Name()).Msg("Cache save failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Clear clears both tiers concurrently and returns once both have finished.
// A failure in one tier never stops the other; all failures are returned joined.
func (c *Coordinator) Clear(ctx context.Context) error {
	tiers := []Tier{c.memory}
	if c.durable != nil {
		tiers = append(tiers, c.durable)
	}

	errs := make([]error, len(tiers))
	var wg sync.WaitGroup
	for i, tier := range tiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tier.Clear(ctx); err != nil {
				c.logger.Warn().Err(err).Str("tier", tier.Name()).Msg("Cache clear failed")
				errs[i] = err
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
