package backend

import (
	"context"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/types"
)

// NullBackend accepts every write and stores nothing, so every key reads
// as absent.
type NullBackend struct{}

func NewNullBackend() *NullBackend {
	return &NullBackend{}
}

func (NullBackend) Name() string { return config.BackendNull }

func (NullBackend) IsAvailable() bool { return true }

func (NullBackend) Close() error { return nil }

func (NullBackend) Stats() types.BackendStats { return types.BackendStats{} }

func (NullBackend) Exists(context.Context, string) (bool, error) { return false, nil }

func (NullBackend) Read(context.Context, string) ([]byte, error) {
	return nil, types.ErrCacheMiss
}

func (NullBackend) Write(context.Context, string, []byte, *types.WriteOptions) error { return nil }

func (NullBackend) Delete(context.Context, string) (bool, error) { return false, nil }

func (NullBackend) Clear(context.Context) error { return nil }

var (
	_ types.Backend             = (*NullBackend)(nil)
	_ types.Closer              = (*NullBackend)(nil)
	_ types.AvailabilityChecker = (*NullBackend)(nil)
	_ types.StatsProvider       = (*NullBackend)(nil)
)
