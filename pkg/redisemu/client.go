package redisemu

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/LavishGent/redisemu/internal/backend"
	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/emulator"
	"github.com/LavishGent/redisemu/internal/metrics"
	"github.com/LavishGent/redisemu/internal/metrics/datadog"
	"github.com/LavishGent/redisemu/internal/metrics/prometheus"
	"github.com/LavishGent/redisemu/internal/runtime"
	"github.com/LavishGent/redisemu/internal/types"
)

type snapshotter interface {
	Snapshot() types.MetricsSnapshot
}

// Client runs commands and owns the resources behind them. All command
// methods come from the embedded Processor.
type Client struct {
	*emulator.Processor

	config  *config.Config
	runtime *runtime.Runtime
	logger  *slog.Logger

	recorder       types.MetricsRecorder
	tracker        snapshotter
	publisher      types.Publisher
	background     *metrics.BackgroundPublisher
	metricsHandler http.Handler

	ownsBackend bool
	closed      atomic.Bool
}

// New creates a client with default configuration.
func New(opts ...Option) (*Client, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromFile creates a client from a JSON or YAML config file, applying
// REDISEMU_* environment overrides.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a client from cfg.
func NewFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	logger := slog.Default()
	if o.Logger != nil {
		logger = slog.New(slogAdapter{logger: o.Logger})
	}

	c := &Client{
		config: cfg,
		logger: logger.With("component", "redisemu"),
	}

	c.recorder = o.Metrics
	if c.recorder == nil && cfg.Metrics.Enabled {
		c.recorder = metrics.NewTracker()
	}
	if s, ok := c.recorder.(snapshotter); ok {
		c.tracker = s
	}

	if o.Runtime != nil {
		c.runtime = o.Runtime
	} else {
		c.runtime = newRuntime(cfg, c.recorder, logger)
		c.ownsBackend = o.Backend == nil
	}
	if o.Backend != nil {
		c.runtime.SetBackend(o.Backend)
	}

	var validator *types.KeyValidator
	if cfg.KeyValidation.Enabled {
		validator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	}

	c.Processor = emulator.NewWithSource(c.runtime,
		emulator.WithLogger(logger),
		emulator.WithMetrics(c.recorder),
		emulator.WithValidator(validator),
		emulator.WithStrictIntegers(cfg.Emulation.StrictIntegers || o.StrictIntegers),
	)

	// Build an owned backend now so configuration errors surface here.
	if c.ownsBackend {
		if _, err := c.runtime.Backend(context.Background()); err != nil {
			return nil, err
		}
	}

	if cfg.Metrics.Enabled {
		if err := c.startMetrics(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.logger.Info("Client created",
		"backend", cfg.Backend.Type,
		"metrics", cfg.Metrics.Enabled,
		"strictIntegers", cfg.Emulation.StrictIntegers || o.StrictIntegers,
	)
	return c, nil
}

// NewRuntime returns a runtime that builds the backend described by cfg on
// first use. Share it between clients with WithRuntime.
func NewRuntime(cfg *Config) *Runtime {
	return newRuntime(cfg, nil, slog.Default())
}

func newRuntime(cfg *config.Config, recorder types.MetricsRecorder, logger *slog.Logger) *runtime.Runtime {
	return runtime.New(func(context.Context) (types.Backend, error) {
		return backend.New(cfg, recorder, logger)
	}, logger)
}

// NewBackend builds the backend described by cfg.
func NewBackend(cfg *Config) (Backend, error) {
	return backend.New(cfg, nil, slog.Default())
}

func (c *Client) startMetrics() error {
	publishers := []types.Publisher{metrics.NewLoggingPublisher(c.logger)}

	if c.config.Metrics.DataDog.Enabled {
		dd, err := datadog.NewPublisher(&c.config.Metrics.DataDog, c.logger)
		if err != nil {
			return err
		}
		publishers = append(publishers, dd)
	}

	if c.config.Metrics.Prometheus.Enabled {
		prom := prometheus.NewPublisher(&c.config.Metrics.Prometheus, c.logger)
		if h, ok := prom.(interface{ Handler() http.Handler }); ok {
			c.metricsHandler = h.Handler()
		}
		publishers = append(publishers, prom)
	}

	c.publisher = metrics.NewFanout(publishers...)
	c.background = metrics.NewBackgroundPublisher(
		c.publisher,
		c.config.Metrics.PublishInterval,
		c.healthBatch,
		c.logger,
	)
	c.background.Start(context.Background())
	return nil
}

// healthBatch returns nil until a backend exists, so publishing never
// triggers backend construction.
func (c *Client) healthBatch() *types.PublisherHealthMetrics {
	b := c.runtime.Current()
	if b == nil {
		return nil
	}
	var snap types.MetricsSnapshot
	if c.tracker != nil {
		snap = c.tracker.Snapshot()
	}
	return metrics.HealthBatch(backendHealth(b), snap)
}

func backendHealth(b types.Backend) types.HealthMetrics {
	h := types.HealthMetrics{
		Timestamp:           time.Now(),
		Backend:             b.Name(),
		CircuitBreakerState: backend.CircuitState(b),
		Available:           true,
		Status:              types.HealthStatusHealthy,
	}
	if ac, ok := b.(types.AvailabilityChecker); ok {
		h.Available = ac.IsAvailable()
	}
	if sp, ok := b.(types.StatsProvider); ok {
		h.Stats = sp.Stats()
	}

	switch {
	case !h.Available:
		h.Status = types.HealthStatusUnhealthy
	case h.CircuitBreakerState == "open":
		h.Status = types.HealthStatusDegraded
	}
	return h
}

// Health describes the active backend.
func (c *Client) Health(ctx context.Context) (*HealthMetrics, error) {
	b, err := c.runtime.Backend(ctx)
	if err != nil {
		return nil, err
	}
	h := backendHealth(b)
	return &h, nil
}

// IsHealthy returns true if the backend is available and its breaker closed.
func (c *Client) IsHealthy(ctx context.Context) bool {
	h, err := c.Health(ctx)
	return err == nil && h.Status == types.HealthStatusHealthy
}

// Metrics returns a snapshot of the built-in tracker. It is empty when
// metrics are disabled or a custom recorder was supplied.
func (c *Client) Metrics() MetricsSnapshot {
	if c.tracker == nil {
		return MetricsSnapshot{Timestamp: time.Now()}
	}
	return c.tracker.Snapshot()
}

// PublishMetrics publishes one health batch immediately.
func (c *Client) PublishMetrics() {
	if c.background != nil {
		c.background.PublishNow()
	}
}

// MetricsHandler serves the Prometheus registry, or is nil when Prometheus
// is disabled.
func (c *Client) MetricsHandler() http.Handler {
	return c.metricsHandler
}

// Runtime returns the runtime holding the client's backend.
func (c *Client) Runtime() *Runtime {
	return c.runtime
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *Config {
	return c.config
}

// Close stops metrics publishing and closes the backend if the client
// built it. Closing twice is a no-op.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.logger.Info("Closing client")

	var errs []error

	if c.background != nil {
		c.background.Stop()
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.ownsBackend {
		if closer, ok := c.runtime.Current().(types.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
