package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryConfig holds memory tier settings.
type MemoryConfig struct {
	// TTL after which entries are reclaimed (0 = never expire)
	TTL time.Duration

	// CleanupInterval between janitor sweeps of expired entries (0 = no janitor)
	CleanupInterval time.Duration

	// MaxEntries bounds the number of stored entries (0 = unbounded)
	MaxEntries int
}

// DefaultMemoryConfig returns the default memory tier configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:             30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxEntries:      1024,
	}
}

type memoryItem struct {
	entry *Entry
}

// MemoryTier is an in-process tier backed by go-cache.
//
// Entries expire after TTL and are dropped oldest-first once MaxEntries is
// reached. Reclaimed entries are reported as ordinary misses.
type MemoryTier struct {
	items      *gocache.Cache
	maxEntries int

	// mu serializes saves and clears so the capacity check and insert are atomic.
	mu sync.Mutex

	// order lists keys oldest-first; index points into it. Only maintained
	// when maxEntries > 0. The janitor updates them through OnEvicted, so
	// they have their own lock that is never held across go-cache calls.
	orderMu sync.Mutex
	order   *list.List
	index   map[string]*list.Element
}

// NewMemoryTier creates a memory tier.
func NewMemoryTier(cfg MemoryConfig) *MemoryTier {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	cleanup := cfg.CleanupInterval
	if cleanup < 0 {
		cleanup = 0
	}
	m := &MemoryTier{
		items:      gocache.New(ttl, cleanup),
		maxEntries: cfg.MaxEntries,
		order:      list.New(),
		index:      make(map[string]*list.Element),
	}
	if m.maxEntries > 0 {
		m.items.OnEvicted(func(key string, _ any) { m.forget(key) })
	}
	return m
}

// Name implements Tier.
func (m *MemoryTier) Name() string { return TierMemory }

// Save implements Tier.
func (m *MemoryTier) Save(_ context.Context, key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		CacheErrors.WithLabelValues(TierMemory, "save").Inc()
		return err
	}
	if entry == nil {
		CacheErrors.WithLabelValues(TierMemory, "save").Inc()
		return ErrEncode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 {
		if _, exists := m.items.Get(key); !exists {
			m.reclaimLocked()
		}
	}
	m.items.SetDefault(key, &memoryItem{entry: entry.Clone()})
	if m.maxEntries > 0 {
		m.touch(key)
	}
	return nil
}

// Get implements Tier.
func (m *MemoryTier) Get(_ context.Context, key string) (*Entry, error) {
	v, found := m.items.Get(key)
	if !found {
		return nil, missError(TierMemory, key, nil)
	}
	item, ok := v.(*memoryItem)
	if !ok {
		CacheErrors.WithLabelValues(TierMemory, "get").Inc()
		return nil, missError(TierMemory, key, ErrDecode)
	}
	CacheHits.WithLabelValues(TierMemory).Inc()
	return item.entry.Clone(), nil
}

// Clear implements Tier.
func (m *MemoryTier) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Flush does not run OnEvicted.
	m.items.Flush()
	m.orderMu.Lock()
	m.order.Init()
	clear(m.index)
	m.orderMu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *MemoryTier) Len() int {
	return m.items.ItemCount()
}

// reclaimLocked makes room for one more entry by dropping expired entries,
// then the oldest ones.
func (m *MemoryTier) reclaimLocked() {
	if m.items.ItemCount() < m.maxEntries {
		return
	}
	m.items.DeleteExpired()

	for m.items.ItemCount() >= m.maxEntries {
		key, ok := m.popOldest()
		if !ok {
			return
		}
		m.items.Delete(key)
	}
}

// touch marks key as the most recently stored.
func (m *MemoryTier) touch(key string) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()
	if el, ok := m.index[key]; ok {
		m.order.MoveToBack(el)
		return
	}
	m.index[key] = m.order.PushBack(key)
}

func (m *MemoryTier) forget(key string) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()
	if el, ok := m.index[key]; ok {
		m.order.Remove(el)
		delete(m.index, key)
	}
}

func (m *MemoryTier) popOldest() (string, bool) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()
	el := m.order.Front()
	if el == nil {
		return "", false
	}
	key := m.order.Remove(el).(string)
	delete(m.index, key)
	return key, true
}
