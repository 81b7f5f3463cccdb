// Package prometheus exposes emulator metrics through a Prometheus registry.
package prometheus

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/metrics"
	"github.com/LavishGent/redisemu/internal/types"
)

// Publisher implements types.Publisher on a Prometheus registry. Health
// batches land in fixed gauges; ad hoc metrics are registered on first use
// with one label per tag key.
type Publisher struct {
	registry    *prometheus.Registry
	namespace   string
	constLabels prometheus.Labels
	logger      *slog.Logger

	available   *prometheus.GaugeVec
	hits        *prometheus.GaugeVec
	misses      *prometheus.GaugeVec
	writes      *prometheus.GaugeVec
	deletes     *prometheus.GaugeVec
	expirations *prometheus.GaugeVec
	errors      *prometheus.GaugeVec
	hitRatio    *prometheus.GaugeVec
	avgLatency  *prometheus.GaugeVec
	p99Latency  *prometheus.GaugeVec
	circuitOpen *prometheus.GaugeVec
	commands    *prometheus.GaugeVec

	mu      sync.Mutex
	dynamic map[string]dynamicMetric
}

type dynamicMetric struct {
	labels    []string
	gauge     *prometheus.GaugeVec
	counter   *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPublisher creates a publisher from cfg. When Prometheus is disabled a
// no-op publisher is returned.
func NewPublisher(cfg *config.PrometheusConfig, logger *slog.Logger) types.Publisher {
	if !cfg.Enabled {
		return metrics.NewNoOpPublisher()
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := newPublisher(prometheus.NewRegistry(), cfg.Namespace, cfg.ConstLabels, logger)
	logger.Info("Prometheus publisher initialized", "namespace", cfg.Namespace)
	return p
}

func newPublisher(reg *prometheus.Registry, namespace string, constLabels map[string]string, logger *slog.Logger) *Publisher {
	factory := promauto.With(reg)
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, append([]string{"backend"}, labels...))
	}

	return &Publisher{
		registry:    reg,
		namespace:   namespace,
		constLabels: constLabels,
		logger:      logger.With("component", "prometheus"),

		available:   gauge("backend_available", "Whether the active backend is reachable (1) or not (0)"),
		hits:        gauge("backend_hits", "Reads that found a value"),
		misses:      gauge("backend_misses", "Reads that found nothing"),
		writes:      gauge("backend_writes", "Values written to the backend"),
		deletes:     gauge("backend_deletes", "Keys deleted from the backend"),
		expirations: gauge("backend_expirations", "Entries dropped because their expiry passed"),
		errors:      gauge("backend_errors", "Backend operations that failed"),
		hitRatio:    gauge("hit_ratio", "Hits divided by reads"),
		avgLatency:  gauge("command_latency_avg_ms", "Mean command latency in milliseconds"),
		p99Latency:  gauge("command_latency_p99_ms", "99th percentile command latency in milliseconds"),
		circuitOpen: gauge("circuit_open", "Whether the backend circuit breaker is open", "circuit_state"),
		commands:    gauge("commands_total", "Commands executed, by command name", "command"),

		dynamic: make(map[string]dynamicMetric),
	}
}

// Registry returns the registry the publisher writes to.
func (p *Publisher) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Publisher) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Publisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}

	b := m.Backend
	p.available.WithLabelValues(b).Set(boolGauge(m.Available))
	p.hits.WithLabelValues(b).Set(float64(m.Hits))
	p.misses.WithLabelValues(b).Set(float64(m.Misses))
	p.writes.WithLabelValues(b).Set(float64(m.Writes))
	p.deletes.WithLabelValues(b).Set(float64(m.Deletes))
	p.expirations.WithLabelValues(b).Set(float64(m.Expirations))
	p.errors.WithLabelValues(b).Set(float64(m.Errors))
	p.hitRatio.WithLabelValues(b).Set(min(max(m.HitRatio, 0), 1))
	p.avgLatency.WithLabelValues(b).Set(max(0, m.AvgLatencyMs))
	p.p99Latency.WithLabelValues(b).Set(max(0, m.P99LatencyMs))

	if m.CircuitState != "" {
		p.circuitOpen.Reset()
		p.circuitOpen.WithLabelValues(b, m.CircuitState).Set(boolGauge(m.CircuitState == "open"))
	}

	for command, n := range m.Commands {
		p.commands.WithLabelValues(b, strings.ToLower(command)).Set(float64(n))
	}
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	if g, values, ok := p.lookup(name, kindGauge, tags); ok {
		g.gauge.WithLabelValues(values...).Set(value)
	}
}

func (p *Publisher) Incr(name string, tags ...string) {
	p.Count(name, 1, tags...)
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	if value < 0 {
		p.logger.Debug("Dropping negative count", "name", name, "value", value)
		return
	}
	if c, values, ok := p.lookup(name, kindCounter, tags); ok {
		c.counter.WithLabelValues(values...).Add(float64(value))
	}
}

func (p *Publisher) Histogram(name string, value float64, tags ...string) {
	if h, values, ok := p.lookup(name, kindHistogram, tags); ok {
		h.histogram.WithLabelValues(values...).Observe(value)
	}
}

// Timing observes duration in seconds on a histogram named name.
func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name+".seconds", duration.Seconds(), tags...)
}

func (p *Publisher) Close() error {
	return nil
}

type metricKind int

const (
	kindGauge metricKind = iota
	kindCounter
	kindHistogram
)

// lookup returns the collector for name, registering it on first use. A
// later call whose tag keys differ from the first one is dropped.
func (p *Publisher) lookup(name string, kind metricKind, tags []string) (dynamicMetric, []string, bool) {
	labels := make([]string, len(tags))
	values := make([]string, len(tags))
	for i, tag := range tags {
		labels[i], values[i] = metrics.SplitTag(tag)
		labels[i] = sanitize(labels[i])
	}

	metricName := sanitize(name)
	if kind == kindCounter {
		metricName += "_total"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.dynamic[metricName]; ok {
		if !slices.Equal(m.labels, labels) || !m.is(kind) {
			p.logger.Debug("Dropping metric with mismatched labels", "name", name, "labels", labels)
			return dynamicMetric{}, nil, false
		}
		return m, values, true
	}

	m := dynamicMetric{labels: labels}
	var collector prometheus.Collector
	switch kind {
	case kindGauge:
		m.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: p.namespace, Name: metricName, Help: name, ConstLabels: p.constLabels}, labels)
		collector = m.gauge
	case kindCounter:
		m.counter = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: p.namespace, Name: metricName, Help: name, ConstLabels: p.constLabels}, labels)
		collector = m.counter
	case kindHistogram:
		m.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   p.namespace,
			Name:        metricName,
			Help:        name,
			ConstLabels: p.constLabels,
			Buckets:     prometheus.DefBuckets,
		}, labels)
		collector = m.histogram
	}

	if err := p.registry.Register(collector); err != nil {
		p.logger.Debug("Failed to register metric", "name", name, "error", err)
		return dynamicMetric{}, nil, false
	}
	p.dynamic[metricName] = m
	return m, values, true
}

func (m dynamicMetric) is(kind metricKind) bool {
	switch kind {
	case kindGauge:
		return m.gauge != nil
	case kindCounter:
		return m.counter != nil
	default:
		return m.histogram != nil
	}
}

// sanitize maps a DataDog style dotted name onto the Prometheus charset.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ types.Publisher = (*Publisher)(nil)
