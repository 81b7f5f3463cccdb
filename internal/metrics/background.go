package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// BackgroundPublisher publishes health metrics at a fixed interval until
// its context is cancelled or Stop is called. A last batch is published on
// shutdown.
type BackgroundPublisher struct {
	publisher types.Publisher
	logger    *slog.Logger
	getHealth func() *types.PublisherHealthMetrics
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackgroundPublisher creates a publisher loop. healthFn is called on
// every tick; a nil result skips that tick.
func NewBackgroundPublisher(
	publisher types.Publisher,
	interval time.Duration,
	healthFn func() *types.PublisherHealthMetrics,
	logger *slog.Logger,
) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &BackgroundPublisher{
		publisher: publisher,
		interval:  interval,
		logger:    logger.With("component", "metrics-background"),
		getHealth: healthFn,
	}
}

// Start launches the loop. Calling Start on a running publisher does nothing.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run(ctx)
	b.logger.Info("Background metrics publisher started", "interval", b.interval)
}

// Stop cancels the loop and waits for the final publish.
func (b *BackgroundPublisher) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	b.wg.Wait()
	b.logger.Info("Background metrics publisher stopped")
}

func (b *BackgroundPublisher) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in metrics publisher", "panic", r)
		}
	}()

	if b.getHealth == nil {
		return
	}
	if m := b.getHealth(); m != nil {
		b.publisher.PublishHealthMetrics(m)
	}
}

// PublishNow publishes one batch synchronously.
func (b *BackgroundPublisher) PublishNow() {
	b.publish()
}

// HealthBatch merges a backend health view and a tracker snapshot into the
// batch shape publishers consume.
func HealthBatch(health types.HealthMetrics, snap types.MetricsSnapshot) *types.PublisherHealthMetrics {
	return &types.PublisherHealthMetrics{
		Backend:      health.Backend,
		CircuitState: health.CircuitBreakerState,
		Available:    health.Available,
		Hits:         snap.Hits,
		Misses:       snap.Misses,
		Writes:       snap.WriteCount,
		Deletes:      snap.DeleteCount,
		Expirations:  health.Stats.Expirations,
		Errors:       snap.ErrorCount,
		Commands:     snap.Commands,
		HitRatio:     snap.HitRatio(),
		AvgLatencyMs: snap.AvgLatencyMs,
		P99LatencyMs: snap.P99LatencyMs,
	}
}
