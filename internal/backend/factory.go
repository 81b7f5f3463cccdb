// Package backend provides the stores the emulator runs on: an in-process
// bigcache store, a Redis server, a bolt file and a null store.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/resilience"
	"github.com/LavishGent/redisemu/internal/types"
)

// New builds the backend selected by cfg.Backend.Type. When
// cfg.Backend.Instrument is set and recorder is non-nil, the backend is
// wrapped so every call is reported to recorder.
func New(cfg *config.Config, recorder types.MetricsRecorder, logger *slog.Logger) (types.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var b types.Backend
	switch cfg.Backend.Type {
	case config.BackendMemory, "":
		mb, err := NewMemoryBackend(cfg.Memory, logger)
		if err != nil {
			return nil, err
		}
		b = mb

	case config.BackendRedis:
		rb := NewRedisBackend(cfg.Redis, resilience.NewPolicy(config.BackendRedis, cfg), logger)
		if recorder != nil {
			rb.SetOnCircuitStateChange(recorder.RecordCircuitBreakerStateChange)
		}
		b = rb

	case config.BackendBolt:
		bb, err := NewBoltBackend(cfg.Bolt, logger)
		if err != nil {
			return nil, err
		}
		b = bb

	case config.BackendNull:
		b = NewNullBackend()

	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}

	logger.Debug("Backend created", "backend", b.Name(), "instrumented", cfg.Backend.Instrument)

	if cfg.Backend.Instrument {
		return NewInstrumentedBackend(b, recorder), nil
	}
	return b, nil
}

// CircuitState returns the breaker state of b, or "" when b has no breaker.
func CircuitState(b types.Backend) string {
	if ib, ok := b.(*InstrumentedBackend); ok {
		b = ib.Unwrap()
	}
	if rb, ok := b.(*RedisBackend); ok {
		return rb.CircuitState()
	}
	return ""
}
