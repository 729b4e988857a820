package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var levelDBEntryPrefix = []byte("e:")

// LevelDBTier stores entries in an embedded LevelDB database.
type LevelDBTier struct {
	db *leveldb.DB
}

// OpenLevelDBTier opens (or creates) a LevelDB database at path.
func OpenLevelDBTier(path string) (*LevelDBTier, error) {
	if path == "" {
		return nil, errors.New("leveldb path required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelDBTier{db: db}, nil
}

// Name implements Tier.
func (l *LevelDBTier) Name() string { return TierLevelDB }

func levelDBKey(key string) []byte {
	return append(append([]byte{}, levelDBEntryPrefix...), key...)
}

// Save implements Tier.
func (l *LevelDBTier) Save(_ context.Context, key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "save").Inc()
		return err
	}
	data, err := encodeEntry(entry)
	if err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "save").Inc()
		return err
	}
	if err := l.db.Put(levelDBKey(key), data, nil); err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "save").Inc()
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Get implements Tier.
func (l *LevelDBTier) Get(_ context.Context, key string) (*Entry, error) {
	data, err := l.db.Get(levelDBKey(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, missError(TierLevelDB, key, nil)
		}
		CacheErrors.WithLabelValues(TierLevelDB, "get").Inc()
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	entry, err := decodeEntry(data)
	if err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "get").Inc()
		return nil, missError(TierLevelDB, key, err)
	}
	CacheHits.WithLabelValues(TierLevelDB).Inc()
	return entry, nil
}

// Clear implements Tier.
func (l *LevelDBTier) Clear(_ context.Context) error {
	it := l.db.NewIterator(util.BytesPrefix(levelDBEntryPrefix), nil)
	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "clear").Inc()
		return fmt.Errorf("leveldb iterate: %w", err)
	}
	if err := l.db.Write(batch, nil); err != nil {
		CacheErrors.WithLabelValues(TierLevelDB, "clear").Inc()
		return fmt.Errorf("leveldb write: %w", err)
	}
	return nil
}

// Close releases the database.
func (l *LevelDBTier) Close() error {
	return l.db.Close()
}
