package metrics

import (
	"log/slog"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// LoggingPublisher writes metrics to a slog logger. Individual metrics go
// out at debug level; health batches at info.
type LoggingPublisher struct {
	logger   *slog.Logger
	baseTags []string
}

func NewLoggingPublisher(logger *slog.Logger, baseTags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{
		logger:   logger.With("component", "metrics"),
		baseTags: baseTags,
	}
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.logger.Debug("gauge", "name", name, "value", value, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.logger.Debug("incr", "name", name, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.logger.Debug("count", "name", name, "value", value, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Histogram(name string, value float64, tags ...string) {
	p.logger.Debug("histogram", "name", name, "value", value, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.logger.Debug("timing", "name", name, "duration_ms", millis(duration), "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}

	p.logger.Info("health_metrics",
		"backend", m.Backend,
		"available", m.Available,
		"circuit_state", m.CircuitState,
		"hits", m.Hits,
		"misses", m.Misses,
		"writes", m.Writes,
		"deletes", m.Deletes,
		"expirations", m.Expirations,
		"errors", m.Errors,
		"hit_ratio", m.HitRatio,
		"avg_latency_ms", m.AvgLatencyMs,
		"p99_latency_ms", m.P99LatencyMs,
	)
}

func (p *LoggingPublisher) Close() error {
	return nil
}

var _ types.Publisher = (*LoggingPublisher)(nil)
