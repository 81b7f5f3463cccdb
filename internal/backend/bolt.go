package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/boltdb/bolt"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/types"
)

var errBucketMissing = errors.New("bucket not found")

// BoltBackend stores envelope-encoded entries in a single bucket of a bolt
// file. Expired entries are removed when next touched.
type BoltBackend struct {
	db     *bolt.DB
	bucket []byte
	logger *slog.Logger
	now    func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	writes      atomic.Int64
	deletes     atomic.Int64
	expirations atomic.Int64

	closed atomic.Bool
}

// NewBoltBackend opens (or creates) the bolt file in cfg and makes sure the
// bucket exists.
func NewBoltBackend(cfg config.BoltConfig, logger *slog.Logger) (*BoltBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, types.NewCacheError("Open", "", config.BackendBolt, err)
	}
	db.NoSync = cfg.NoSync

	bucket := []byte(cfg.Bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, types.NewCacheError("Open", "", config.BackendBolt, err)
	}

	bb := &BoltBackend{
		db:     db,
		bucket: bucket,
		logger: logger.With("component", "bolt-backend"),
		now:    time.Now,
	}
	bb.logger.Info("Bolt backend opened", "path", cfg.Path, "bucket", cfg.Bucket)
	return bb, nil
}

func (b *BoltBackend) Name() string {
	return config.BackendBolt
}

func (b *BoltBackend) IsAvailable() bool {
	return !b.closed.Load()
}

// lookup reads key inside one update transaction so an expired entry can be
// deleted in place. A nil value with a nil error means absent.
func (b *BoltBackend) lookup(ctx context.Context, op, key string) ([]byte, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	var value []byte
	var expiredNow bool
	now := b.now()

	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return errBucketMissing
		}

		raw := bkt.Get([]byte(key))
		if raw == nil {
			return nil
		}

		v, expiresAt, err := decodeEnvelope(raw)
		if err != nil {
			return err
		}
		if expired(expiresAt, now) {
			expiredNow = true
			return bkt.Delete([]byte(key))
		}

		// raw is only valid for the life of the transaction
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, types.NewCacheError(op, key, config.BackendBolt, err)
	}

	if expiredNow {
		b.expirations.Add(1)
	}
	return value, nil
}

func (b *BoltBackend) check(ctx context.Context) error {
	if b.closed.Load() {
		return types.ErrClosed
	}
	return ctx.Err()
}

func (b *BoltBackend) Exists(ctx context.Context, key string) (bool, error) {
	value, err := b.lookup(ctx, "Exists", key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (b *BoltBackend) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := b.lookup(ctx, "Read", key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		b.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	b.hits.Add(1)
	return value, nil
}

func (b *BoltBackend) Write(ctx context.Context, key string, value []byte, opts *types.WriteOptions) error {
	if err := b.check(ctx); err != nil {
		return err
	}

	entry := encodeEnvelope(value, types.ExpiryFrom(opts, b.now()))
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return errBucketMissing
		}
		return bkt.Put([]byte(key), entry)
	})
	if err != nil {
		return types.NewCacheError("Write", key, config.BackendBolt, err)
	}

	b.writes.Add(1)
	return nil
}

func (b *BoltBackend) Delete(ctx context.Context, key string) (bool, error) {
	if err := b.check(ctx); err != nil {
		return false, err
	}

	var found, existed bool
	now := b.now()

	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return errBucketMissing
		}

		raw := bkt.Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		if _, expiresAt, err := decodeEnvelope(raw); err == nil {
			existed = !expired(expiresAt, now)
		}
		return bkt.Delete([]byte(key))
	})
	if err != nil {
		return false, types.NewCacheError("Delete", key, config.BackendBolt, err)
	}

	switch {
	case existed:
		b.deletes.Add(1)
	case found:
		b.expirations.Add(1)
	}
	return existed, nil
}

// Clear drops the bucket and creates it again empty.
func (b *BoltBackend) Clear(ctx context.Context) error {
	if err := b.check(ctx); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(b.bucket)
		return err
	})
	if err != nil {
		return types.NewCacheError("Clear", "", config.BackendBolt, err)
	}
	return nil
}

func (b *BoltBackend) Stats() types.BackendStats {
	return types.BackendStats{
		Hits:        b.hits.Load(),
		Misses:      b.misses.Load(),
		Writes:      b.writes.Load(),
		Deletes:     b.deletes.Load(),
		Expirations: b.expirations.Load(),
	}
}

func (b *BoltBackend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

var (
	_ types.Backend             = (*BoltBackend)(nil)
	_ types.Closer              = (*BoltBackend)(nil)
	_ types.AvailabilityChecker = (*BoltBackend)(nil)
	_ types.StatsProvider       = (*BoltBackend)(nil)
)
