// Package runtime holds the backend reference the emulator runs against.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/redisemu/internal/types"
)

// Factory builds a backend on first use.
type Factory func(ctx context.Context) (types.Backend, error)

// Runtime owns at most one backend at a time. When none is set, the first
// call to Backend builds one with the factory; concurrent first callers
// share that single call.
type Runtime struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.RWMutex
	backend types.Backend

	sf singleflight.Group
}

// New creates a runtime. factory may be nil, in which case a backend must
// be installed with SetBackend before use.
func New(factory Factory, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		factory: factory,
		logger:  logger.With("component", "runtime"),
	}
}

// SetBackend installs b as the current backend. The previous backend is
// not closed.
func (r *Runtime) SetBackend(b types.Backend) {
	r.mu.Lock()
	prev := r.backend
	r.backend = b
	r.mu.Unlock()

	if b != nil {
		r.logger.Info("Backend configured", "backend", b.Name(), "replaced", prev != nil)
	}
}

// Backend returns the current backend, building it with the factory if
// none is set. A failed factory call is not remembered.
func (r *Runtime) Backend(ctx context.Context) (types.Backend, error) {
	r.mu.RLock()
	b := r.backend
	r.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	if r.factory == nil {
		return nil, types.ErrNoBackend
	}

	v, err, shared := r.sf.Do("backend", func() (any, error) {
		r.mu.RLock()
		existing := r.backend
		r.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		built, err := r.factory(ctx)
		if err != nil {
			r.logger.Warn("Backend factory failed", "error", err)
			return nil, err
		}
		if built == nil {
			return nil, types.ErrNoBackend
		}

		r.mu.Lock()
		if r.backend != nil {
			// SetBackend ran while the factory was building.
			winner := r.backend
			r.mu.Unlock()
			r.discard(built)
			return winner, nil
		}
		r.backend = built
		r.mu.Unlock()

		r.logger.Info("Backend created lazily", "backend", built.Name())
		return built, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		r.logger.Debug("Shared backend creation with concurrent caller")
	}
	return v.(types.Backend), nil
}

// Current returns the installed backend without invoking the factory.
func (r *Runtime) Current() types.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend
}

// Reset forgets the current backend without closing it.
func (r *Runtime) Reset() {
	r.mu.Lock()
	r.backend = nil
	r.mu.Unlock()
}

func (r *Runtime) discard(b types.Backend) {
	r.logger.Debug("Discarding lazily built backend", "backend", b.Name())
	if closer, ok := b.(types.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Warn("Failed to close discarded backend", "backend", b.Name(), "error", err)
		}
	}
}
