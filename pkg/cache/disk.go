package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// tempPrefix marks in-flight writes; eviction and lookups never see them.
const tempPrefix = ".tmp-"

// removeFile deletes a record during eviction. Tests replace it.
var removeFile = os.Remove

// DiskConfig holds disk tier settings.
type DiskConfig struct {
	// Dir is the dedicated cache directory. Clear removes it entirely.
	Dir string

	// MaxBytes is the total size budget of stored records (0 = unbounded)
	MaxBytes int64
}

// DefaultDiskDir returns <user cache dir>/routecache, falling back to the
// system temp directory when no user cache directory is known.
func DefaultDiskDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "routecache")
}

// DiskTier persists one JSON record per key in a directory.
//
// Writes go to a temp file that is renamed over the final name, so readers
// only ever observe complete records. When MaxBytes is set, every successful
// save schedules an eviction pass on a detached goroutine.
type DiskTier struct {
	dir      string
	maxBytes int64
	logger   zerolog.Logger

	// evictMu serializes eviction passes.
	evictMu sync.Mutex
	pending sync.WaitGroup
}

// NewDiskTier creates a disk tier. The directory is created lazily on first save.
func NewDiskTier(cfg DiskConfig, logger zerolog.Logger) (*DiskTier, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDiskDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve disk cache dir: %w", err)
	}
	if cfg.MaxBytes < 0 {
		return nil, fmt.Errorf("disk cache budget must be >= 0 (got %d)", cfg.MaxBytes)
	}
	return &DiskTier{
		dir:      abs,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}, nil
}

// Name implements Tier.
func (d *DiskTier) Name() string { return TierDisk }

// Dir returns the absolute cache directory.
func (d *DiskTier) Dir() string { return d.dir }

// Path returns the record file path for key.
func (d *DiskTier) Path(key string) string {
	return filepath.Join(d.dir, fileName(key))
}

// Save implements Tier.
func (d *DiskTier) Save(_ context.Context, key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		CacheErrors.WithLabelValues(TierDisk, "save").Inc()
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		CacheErrors.WithLabelValues(TierDisk, "save").Inc()
		return err
	}

	if err := d.writeAtomic(d.Path(key), data); err != nil {
		CacheErrors.WithLabelValues(TierDisk, "save").Inc()
		return fmt.Errorf("%w: %w", ErrDiskWrite, err)
	}

	if d.maxBytes > 0 {
		d.pending.Add(1)
		go func() {
			defer d.pending.Done()
			d.evict()
		}()
	}
	return nil
}

func (d *DiskTier) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Get implements Tier.
func (d *DiskTier) Get(_ context.Context, key string) (*Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missError(TierDisk, key, nil)
		}
		CacheErrors.WithLabelValues(TierDisk, "get").Inc()
		return nil, missError(TierDisk, key, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		CacheErrors.WithLabelValues(TierDisk, "get").Inc()
		return nil, missError(TierDisk, key, err)
	}

	CacheHits.WithLabelValues(TierDisk).Inc()
	return entry, nil
}

// Clear implements Tier. It removes the whole cache directory.
func (d *DiskTier) Clear(_ context.Context) error {
	if err := os.RemoveAll(d.dir); err != nil {
		CacheErrors.WithLabelValues(TierDisk, "clear").Inc()
		return fmt.Errorf("%w: %w", ErrDiskClear, err)
	}
	return nil
}

// Wait blocks until every scheduled eviction pass has finished.
func (d *DiskTier) Wait() {
	d.pending.Wait()
}

type diskRecord struct {
	path    string
	size    int64
	modTime time.Time
}

// Evict runs one eviction pass synchronously and returns the number of
// records removed.
func (d *DiskTier) Evict() int {
	return d.evict()
}

// evict deletes least-recently-modified records until the directory fits the
// budget. Per-record failures are logged and skipped.
func (d *DiskTier) evict() int {
	if d.maxBytes <= 0 {
		return 0
	}

	d.evictMu.Lock()
	defer d.evictMu.Unlock()

	dirEntries, err := os.ReadDir(d.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			CacheErrors.WithLabelValues(TierDisk, "evict").Inc()
			d.logger.Warn().Err(err).Str("dir", d.dir).Msg("Disk cache eviction scan failed")
		}
		return 0
	}

	records := make([]diskRecord, 0, len(dirEntries))
	var total int64
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, tempPrefix) || filepath.Ext(name) != diskRecordExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Vanished between listing and stat: already gone.
			if !errors.Is(err, fs.ErrNotExist) {
				CacheErrors.WithLabelValues(TierDisk, "evict").Inc()
				d.logger.Warn().Err(err).Str("file", name).Msg("Disk cache eviction stat failed")
			}
			continue
		}
		records = append(records, diskRecord{
			path:    filepath.Join(d.dir, name),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}

	if total <= d.maxBytes {
		DiskSize.Set(float64(total))
		return 0
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].modTime.Equal(records[j].modTime) {
			return records[i].path < records[j].path
		}
		return records[i].modTime.Before(records[j].modTime)
	})

	evicted := 0
	for _, rec := range records {
		if total <= d.maxBytes {
			break
		}
		// A record removed concurrently counts as evicted.
		if err := removeFile(rec.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			CacheErrors.WithLabelValues(TierDisk, "evict").Inc()
			d.logger.Warn().Err(err).Str("file", rec.path).Msg("Disk cache eviction failed for entry")
			continue
		}
		total -= rec.size
		evicted++
		DiskEvictions.Inc()
		DiskEvictedBytes.Add(float64(rec.size))
	}

	DiskSize.Set(float64(total))
	d.logger.Debug().
		Int("evicted", evicted).
		Int64("size_bytes", total).
		Int64("budget_bytes", d.maxBytes).
		Msg("Disk cache eviction complete")

	return evicted
}

// defaultLogger is used by tiers and the coordinator when no logger is supplied.
func defaultLogger() zerolog.Logger {
	return log.With().Str("component", "routecache-cache").Logger()
}
