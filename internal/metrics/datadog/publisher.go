// Package datadog publishes emulator metrics to a DogStatsD agent.
package datadog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/metrics"
	"github.com/LavishGent/redisemu/internal/types"
)

// Publisher implements types.Publisher on the DataDog StatsD client.
type Publisher struct {
	client statsd.ClientInterface
	logger *slog.Logger
}

// NewPublisher creates a publisher from cfg. When DataDog is disabled a
// no-op publisher is returned.
func NewPublisher(cfg *config.DataDogConfig, logger *slog.Logger) (types.Publisher, error) {
	if !cfg.Enabled {
		return metrics.NewNoOpPublisher(), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.Port)
	client, err := statsd.New(addr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("DataDog publisher initialized", "address", addr, "prefix", cfg.Prefix, "tags", cfg.Tags)
	return newPublisher(client, logger), nil
}

func newPublisher(client statsd.ClientInterface, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With("component", "datadog"),
	}
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	if err := p.client.Gauge(name, value, tags, 1); err != nil {
		p.logger.Debug("Failed to send gauge metric", "name", name, "error", err)
	}
}

func (p *Publisher) Incr(name string, tags ...string) {
	if err := p.client.Incr(name, tags, 1); err != nil {
		p.logger.Debug("Failed to send incr metric", "name", name, "error", err)
	}
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	if err := p.client.Count(name, value, tags, 1); err != nil {
		p.logger.Debug("Failed to send count metric", "name", name, "error", err)
	}
}

func (p *Publisher) Histogram(name string, value float64, tags ...string) {
	if err := p.client.Histogram(name, value, tags, 1); err != nil {
		p.logger.Debug("Failed to send histogram metric", "name", name, "error", err)
	}
}

func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	if err := p.client.Timing(name, duration, tags, 1); err != nil {
		p.logger.Debug("Failed to send timing metric", "name", name, "error", err)
	}
}

// PublishHealthMetrics sends one batch as gauges tagged with the backend name.
func (p *Publisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}

	tags := []string{metrics.BackendTag(m.Backend)}
	p.Gauge("backend.available", boolGauge(m.Available), tags...)
	p.Gauge("backend.hits", float64(m.Hits), tags...)
	p.Gauge("backend.misses", float64(m.Misses), tags...)
	p.Gauge("backend.writes", float64(m.Writes), tags...)
	p.Gauge("backend.deletes", float64(m.Deletes), tags...)
	p.Gauge("backend.expirations", float64(m.Expirations), tags...)
	p.Gauge("backend.errors", float64(m.Errors), tags...)
	p.Gauge("performance.hit_ratio", clamp(m.HitRatio, 0, 1), tags...)
	p.Gauge("performance.average_latency_ms", max(0, m.AvgLatencyMs), tags...)
	p.Gauge("performance.p99_latency_ms", max(0, m.P99LatencyMs), tags...)

	if m.CircuitState != "" {
		p.Gauge("circuit.open", boolGauge(m.CircuitState == "open"),
			append(tags, metrics.CircuitStateTag(m.CircuitState))...)
	}

	for command, n := range m.Commands {
		p.Gauge("commands.total", float64(n), append(tags, metrics.CommandTag(command))...)
	}
}

func (p *Publisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(val, lo, hi float64) float64 {
	return min(max(val, lo), hi)
}

var _ types.Publisher = (*Publisher)(nil)
