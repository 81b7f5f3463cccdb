package backend

import (
	"context"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// InstrumentedBackend wraps a backend and reports every call to a metrics
// recorder. Side interfaces of the wrapped backend stay reachable through
// Unwrap and the forwarding methods below.
type InstrumentedBackend struct {
	backend  types.Backend
	recorder types.MetricsRecorder
}

// NewInstrumentedBackend wraps backend. A nil recorder returns backend as is.
func NewInstrumentedBackend(backend types.Backend, recorder types.MetricsRecorder) types.Backend {
	if recorder == nil {
		return backend
	}
	return &InstrumentedBackend{backend: backend, recorder: recorder}
}

// Unwrap returns the wrapped backend.
func (b *InstrumentedBackend) Unwrap() types.Backend {
	return b.backend
}

func (b *InstrumentedBackend) Name() string {
	return b.backend.Name()
}

func (b *InstrumentedBackend) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := b.backend.Exists(ctx, key)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		b.recorder.RecordError(b.Name(), "exists", err)
	case ok:
		b.recorder.RecordHit(b.Name(), key, elapsed)
	default:
		b.recorder.RecordMiss(b.Name(), key, elapsed)
	}
	return ok, err
}

func (b *InstrumentedBackend) Read(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := b.backend.Read(ctx, key)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		b.recorder.RecordHit(b.Name(), key, elapsed)
	case types.IsCacheMiss(err):
		b.recorder.RecordMiss(b.Name(), key, elapsed)
	default:
		b.recorder.RecordError(b.Name(), "read", err)
	}
	return value, err
}

func (b *InstrumentedBackend) Write(ctx context.Context, key string, value []byte, opts *types.WriteOptions) error {
	start := time.Now()
	err := b.backend.Write(ctx, key, value, opts)
	if err != nil {
		b.recorder.RecordError(b.Name(), "write", err)
		return err
	}
	b.recorder.RecordWrite(b.Name(), key, len(value), time.Since(start))
	return nil
}

func (b *InstrumentedBackend) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := b.backend.Delete(ctx, key)
	if err != nil {
		b.recorder.RecordError(b.Name(), "delete", err)
		return false, err
	}
	if ok {
		b.recorder.RecordDelete(b.Name(), key, time.Since(start))
	}
	return ok, nil
}

func (b *InstrumentedBackend) Clear(ctx context.Context) error {
	err := b.backend.Clear(ctx)
	if err != nil {
		b.recorder.RecordError(b.Name(), "clear", err)
	}
	return err
}

func (b *InstrumentedBackend) Close() error {
	if c, ok := b.backend.(types.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *InstrumentedBackend) IsAvailable() bool {
	if a, ok := b.backend.(types.AvailabilityChecker); ok {
		return a.IsAvailable()
	}
	return true
}

func (b *InstrumentedBackend) Stats() types.BackendStats {
	if s, ok := b.backend.(types.StatsProvider); ok {
		return s.Stats()
	}
	return types.BackendStats{}
}

var (
	_ types.Backend             = (*InstrumentedBackend)(nil)
	_ types.Closer              = (*InstrumentedBackend)(nil)
	_ types.AvailabilityChecker = (*InstrumentedBackend)(nil)
	_ types.StatsProvider       = (*InstrumentedBackend)(nil)
)
