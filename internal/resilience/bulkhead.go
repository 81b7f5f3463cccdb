package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
)

// Bulkhead caps the number of in-flight backend calls. Callers beyond
// MaxConcurrent wait up to AcquireTimeout, and at most MaxQueue of them may
// wait at once.
type Bulkhead struct {
	maxConcurrent  int
	maxQueue       int
	acquireTimeout time.Duration
	slots          chan struct{}

	active   atomic.Int32
	queued   atomic.Int32
	rejected atomic.Int64
	executed atomic.Int64
}

func NewBulkhead(cfg config.BulkheadConfig) *Bulkhead {
	b := &Bulkhead{
		maxConcurrent:  orDefault(cfg.MaxConcurrent, 100),
		maxQueue:       orDefault(cfg.MaxQueue, 50),
		acquireTimeout: cfg.AcquireTimeout,
	}
	if b.acquireTimeout <= 0 {
		b.acquireTimeout = 100 * time.Millisecond
	}
	b.slots = make(chan struct{}, b.maxConcurrent)
	return b
}

func (b *Bulkhead) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-b.slots }()

	b.active.Add(1)
	defer b.active.Add(-1)

	err := fn(ctx)
	b.executed.Add(1)
	return err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}

	if int(b.queued.Add(1)) > b.maxQueue {
		b.queued.Add(-1)
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	defer b.queued.Add(-1)

	timer := time.NewTimer(b.acquireTimeout)
	defer timer.Stop()

	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		b.rejected.Add(1)
		return ctx.Err()
	case <-timer.C:
		b.rejected.Add(1)
		return ErrBulkheadTimeout
	}
}

func (b *Bulkhead) ActiveCount() int { return int(b.active.Load()) }

func (b *Bulkhead) QueuedCount() int { return int(b.queued.Load()) }

func (b *Bulkhead) RejectedCount() int64 { return b.rejected.Load() }

func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        b.ActiveCount(),
		Queued:        b.QueuedCount(),
		Available:     b.maxConcurrent - len(b.slots),
		TotalExecuted: b.executed.Load(),
		TotalRejected: b.rejected.Load(),
	}
}

type BulkheadStats struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
	Available     int
	TotalExecuted int64
	TotalRejected int64
}
