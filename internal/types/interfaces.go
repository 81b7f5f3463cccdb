package types

import (
	"context"
	"time"
)

// Backend is the capability contract every cache store must satisfy for
// the command processor to run on top of it. It deliberately offers no TTL
// query, no key enumeration, no atomic arithmetic and no conditional write.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Exists reports whether key currently holds a value.
	Exists(ctx context.Context, key string) (bool, error)

	// Read returns the stored value, or ErrCacheMiss when key is absent.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write unconditionally replaces both the value and the expiry of key.
	// A nil opts or a non-positive TTL means the key does not expire, even
	// if an earlier write gave it an expiry.
	Write(ctx context.Context, key string, value []byte, opts *WriteOptions) error

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Clear removes every key regardless of expiry.
	Clear(ctx context.Context) error
}

type Closer interface {
	Close() error
}

type AvailabilityChecker interface {
	IsAvailable() bool
}

type StatsProvider interface {
	Stats() BackendStats
}

type MetricsRecorder interface {
	RecordHit(backend string, key string, latency time.Duration)
	RecordMiss(backend string, key string, latency time.Duration)
	RecordWrite(backend string, key string, size int, latency time.Duration)
	RecordDelete(backend string, key string, latency time.Duration)
	RecordError(backend string, operation string, err error)
	RecordCommand(command string, latency time.Duration)
	RecordCircuitBreakerStateChange(from, to string)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Publisher ships metrics to an external system.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}
