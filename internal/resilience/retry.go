package resilience

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
)

// RetryPolicy retries transient faults with exponential backoff.
type RetryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         bool

	retries  atomic.Int64
	success  atomic.Int64
	failures atomic.Int64
}

func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	rp := &RetryPolicy{
		maxAttempts:    orDefault(cfg.MaxAttempts, 3),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		multiplier:     cfg.Multiplier,
		jitter:         cfg.Jitter,
	}
	if rp.initialBackoff <= 0 {
		rp.initialBackoff = 100 * time.Millisecond
	}
	if rp.maxBackoff <= 0 {
		rp.maxBackoff = 2 * time.Second
	}
	if rp.multiplier <= 0 {
		rp.multiplier = 2.0
	}
	return rp
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// attempt budget is spent or ctx is done. The last error is returned.
func (rp *RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(ctx); err == nil {
			rp.success.Add(1)
			return nil
		}
		if !IsRetryable(err) || attempt >= rp.maxAttempts {
			rp.failures.Add(1)
			return err
		}

		rp.retries.Add(1)
		timer := time.NewTimer(rp.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff returns the wait after the given failed attempt, capped at
// maxBackoff and spread by ±25% when jitter is on.
func (rp *RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(rp.initialBackoff) * math.Pow(rp.multiplier, float64(attempt-1))
	if d > float64(rp.maxBackoff) {
		d = float64(rp.maxBackoff)
	}
	if rp.jitter {
		spread := d * 0.25
		d += rand.Float64()*2*spread - spread
	}
	return time.Duration(d)
}

func (rp *RetryPolicy) Stats() (retries, success, failure int64) {
	return rp.retries.Load(), rp.success.Load(), rp.failures.Load()
}

func (rp *RetryPolicy) Reset() {
	rp.retries.Store(0)
	rp.success.Store(0)
	rp.failures.Store(0)
}
