package redisemu

import (
	"context"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/emulator"
	"github.com/LavishGent/redisemu/internal/runtime"
	"github.com/LavishGent/redisemu/internal/types"
)

type (
	// Backend is the store commands run against.
	Backend = types.Backend
	// WriteOptions carries the expiry passed to Backend.Write.
	WriteOptions = types.WriteOptions
	// BackendStats holds the counters a backend keeps about itself.
	BackendStats = types.BackendStats
	// MetricsRecorder receives per-call metrics.
	MetricsRecorder = types.MetricsRecorder
	// Logger provides logging operations.
	Logger = types.Logger
	// Publisher ships metrics to an external system.
	Publisher = types.Publisher
	// Processor runs commands against a backend.
	Processor = emulator.Processor
	// SetOption modifies a SET command.
	SetOption = emulator.SetOption
	// Runtime holds the active backend and builds it on first use.
	Runtime = runtime.Runtime
	// Config is the full emulator configuration.
	Config = config.Config
)

// InfoText is the fixed reply to INFO.
const InfoText = emulator.InfoText

// WithTTL returns write options expiring after ttl, or nil for ttl <= 0.
func WithTTL(ttl time.Duration) *WriteOptions {
	return types.WithTTL(ttl)
}

// WithNX only sets the key if it does not exist.
func WithNX() SetOption {
	return emulator.WithNX()
}

// WithXX only sets the key if it already exists.
func WithXX() SetOption {
	return emulator.WithXX()
}

// WithEX expires the key after seconds.
func WithEX(seconds int64) SetOption {
	return emulator.WithEX(seconds)
}

// WithPX expires the key after milliseconds.
func WithPX(milliseconds int64) SetOption {
	return emulator.WithPX(milliseconds)
}

// DefaultConfig returns a default configuration that can be modified before creating a client.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *Config {
	return config.ForTesting()
}

// LoadConfig reads a JSON or YAML config file and applies REDISEMU_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	return config.LoadWithEnv(path)
}

// ValidateKey checks key against the default key rules.
func ValidateKey(key string) error {
	return types.ValidateKey(key)
}

// PipelinedResult runs fn like Client.Pipelined and returns its value.
func PipelinedResult[T any](ctx context.Context, c *Client, fn func(*Processor) (T, error)) (T, error) {
	return emulator.PipelinedResult(ctx, c.Processor, fn)
}

// MultiResult runs fn like Client.Multi and returns its value. It is not a
// transaction.
func MultiResult[T any](ctx context.Context, c *Client, fn func(*Processor) (T, error)) (T, error) {
	return emulator.MultiResult(ctx, c.Processor, fn)
}
