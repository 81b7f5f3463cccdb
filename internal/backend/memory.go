package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/types"
)

// Entries carry their own expiry, so bigcache must never age them out.
const memoryLifeWindow = 100 * 365 * 24 * time.Hour

// keyLockStripes must be a power of two.
const keyLockStripes = 256

// MemoryBackend keeps entries in a bigcache instance. Expiry lives in an
// envelope around each value and is enforced on access; an optional
// janitor sweeps expired entries in the background.
type MemoryBackend struct {
	cache  *bigcache.BigCache
	config config.MemoryConfig
	logger *slog.Logger
	now    func() time.Time

	// Write and the removal of an expired entry hold the key's stripe, so
	// a removal never deletes a value written after the expiry was seen.
	keyLocks [keyLockStripes]sync.Mutex

	hits        atomic.Int64
	misses      atomic.Int64
	writes      atomic.Int64
	deletes     atomic.Int64
	expirations atomic.Int64
	evictions   atomic.Int64

	closed    atomic.Bool
	stopCh    chan struct{}
	janitorWg sync.WaitGroup
}

// NewMemoryBackend creates a memory backend with the given configuration.
func NewMemoryBackend(cfg config.MemoryConfig, logger *slog.Logger) (*MemoryBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mb := &MemoryBackend{
		config: cfg,
		logger: logger.With("component", "memory-backend"),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         memoryLifeWindow,
		CleanWindow:        0,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: mb.logger},
		OnRemoveWithReason: func(_ string, _ []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.NoSpace {
				mb.evictions.Add(1)
			}
		},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, types.NewCacheError("Open", "", "memory", err)
	}
	mb.cache = bc

	if cfg.CleanupInterval > 0 {
		mb.janitorWg.Add(1)
		go mb.janitor(cfg.CleanupInterval)
	}

	mb.logger.Debug("Memory backend initialized",
		"shards", cfg.Shards,
		"max_size_mb", cfg.MaxSizeMB,
		"cleanup_interval", cfg.CleanupInterval,
	)
	return mb, nil
}

func (m *MemoryBackend) Name() string {
	return config.BackendMemory
}

func (m *MemoryBackend) IsAvailable() bool {
	return !m.closed.Load()
}

func (m *MemoryBackend) keyLock(key string) *sync.Mutex {
	return &m.keyLocks[xxhash.Sum64String(key)&(keyLockStripes-1)]
}

// get returns the stored value and expiry for key without checking expiry.
func (m *MemoryBackend) get(op, key string) ([]byte, time.Time, error) {
	if m.closed.Load() {
		return nil, time.Time{}, types.ErrClosed
	}

	raw, err := m.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, time.Time{}, types.ErrCacheMiss
		}
		return nil, time.Time{}, types.NewCacheError(op, key, "memory", err)
	}

	value, expiresAt, err := decodeEnvelope(raw)
	if err != nil {
		return nil, time.Time{}, types.NewCacheError(op, key, "memory", err)
	}
	return value, expiresAt, nil
}

// lookup returns the live value for key. An expired entry is removed and
// reported as a miss.
func (m *MemoryBackend) lookup(op, key string) ([]byte, error) {
	value, expiresAt, err := m.get(op, key)
	if err != nil {
		return nil, err
	}
	if expired(expiresAt, m.now()) {
		m.expire(key)
		return nil, types.ErrCacheMiss
	}
	return value, nil
}

// expire removes key if the entry stored now is still expired.
func (m *MemoryBackend) expire(key string) {
	mu := m.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	if _, expiresAt, err := m.get("Expire", key); err != nil || !expired(expiresAt, m.now()) {
		return
	}
	if err := m.cache.Delete(key); err == nil {
		m.expirations.Add(1)
	}
}

func (m *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	_, err := m.lookup("Exists", key)
	if err != nil {
		if types.IsCacheMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	value, err := m.lookup("Read", key)
	if err != nil {
		if types.IsCacheMiss(err) {
			m.misses.Add(1)
		}
		return nil, err
	}
	m.hits.Add(1)
	return value, nil
}

func (m *MemoryBackend) Write(_ context.Context, key string, value []byte, opts *types.WriteOptions) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	entry := encodeEnvelope(value, types.ExpiryFrom(opts, m.now()))

	mu := m.keyLock(key)
	mu.Lock()
	err := m.cache.Set(key, entry)
	mu.Unlock()
	if err != nil {
		return types.NewCacheError("Write", key, "memory", err)
	}

	m.writes.Add(1)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) (bool, error) {
	if _, err := m.lookup("Delete", key); err != nil {
		if types.IsCacheMiss(err) {
			return false, nil
		}
		return false, err
	}

	if err := m.cache.Delete(key); err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return false, nil
		}
		return false, types.NewCacheError("Delete", key, "memory", err)
	}

	m.deletes.Add(1)
	return true, nil
}

func (m *MemoryBackend) Clear(_ context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	if err := m.cache.Reset(); err != nil {
		return types.NewCacheError("Clear", "", "memory", err)
	}
	return nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not reached yet.
func (m *MemoryBackend) Len() int {
	return m.cache.Len()
}

func (m *MemoryBackend) Stats() types.BackendStats {
	return types.BackendStats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Writes:      m.writes.Load(),
		Deletes:     m.deletes.Load(),
		Expirations: m.expirations.Load(),
		Evictions:   m.evictions.Load(),
	}
}

func (m *MemoryBackend) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	close(m.stopCh)
	m.janitorWg.Wait()
	return m.cache.Close()
}

func (m *MemoryBackend) janitor(interval time.Duration) {
	defer m.janitorWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes every entry whose expiry has passed and returns how many
// were removed.
func (m *MemoryBackend) sweep() int {
	now := m.now()
	var stale []string

	iter := m.cache.Iterator()
	for iter.SetNext() {
		entry, err := iter.Value()
		if err != nil {
			continue
		}
		if _, expiresAt, err := decodeEnvelope(entry.Value()); err == nil && expired(expiresAt, now) {
			stale = append(stale, entry.Key())
		}
	}

	// Re-read each key so one rewritten since the scan survives
	for _, key := range stale {
		_, _ = m.lookup("Sweep", key)
	}

	if len(stale) > 0 {
		m.logger.Debug("Swept expired entries", "removed", len(stale))
	}
	return len(stale)
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("bigcache: "+format, args...))
}

var (
	_ types.Backend             = (*MemoryBackend)(nil)
	_ types.Closer              = (*MemoryBackend)(nil)
	_ types.AvailabilityChecker = (*MemoryBackend)(nil)
	_ types.StatsProvider       = (*MemoryBackend)(nil)
)
