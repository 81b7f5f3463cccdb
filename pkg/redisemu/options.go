package redisemu

import (
	"github.com/LavishGent/redisemu/internal/runtime"
	"github.com/LavishGent/redisemu/internal/types"
)

// ClientOptions holds the settings applied by Option functions.
type ClientOptions struct {
	Backend        types.Backend
	Runtime        *runtime.Runtime
	Logger         types.Logger
	Metrics        types.MetricsRecorder
	StrictIntegers bool
}

type Option func(*ClientOptions)

// WithBackend runs the client on b instead of building a backend from
// configuration. The client does not close b.
func WithBackend(b Backend) Option {
	return func(o *ClientOptions) {
		o.Backend = b
	}
}

// WithRuntime shares rt between clients. The client does not close the
// backend rt holds.
func WithRuntime(rt *Runtime) Option {
	return func(o *ClientOptions) {
		o.Runtime = rt
	}
}

func WithLogger(logger Logger) Option {
	return func(o *ClientOptions) {
		o.Logger = logger
	}
}

// WithMetrics sends per-call metrics to recorder instead of the built-in tracker.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *ClientOptions) {
		o.Metrics = recorder
	}
}

// WithStrictIntegers makes INCR and friends fail with ErrNotInteger on a
// value that is not an integer.
func WithStrictIntegers() Option {
	return func(o *ClientOptions) {
		o.StrictIntegers = true
	}
}

func applyOptions(opts []Option) *ClientOptions {
	o := &ClientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
