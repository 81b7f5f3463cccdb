package resilience

import (
	"context"

	"github.com/LavishGent/redisemu/internal/config"
)

// Executor runs backend calls under some resilience regime.
type Executor interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
	CircuitState() State
	SetOnCircuitStateChange(fn func(from, to State))
}

// Policy layers bulkhead, retry and circuit breaker around a call:
//
//	bulkhead -> retry -> circuit breaker -> fn
//
// Every retry attempt passes the breaker on its own, so a failing call
// counts once per attempt. A nil component is skipped.
type Policy struct {
	circuitBreaker *CircuitBreaker
	retry          *RetryPolicy
	bulkhead       *Bulkhead
}

// NewPolicy builds the policy for the named backend from cfg.
func NewPolicy(name string, cfg *config.Config) *Policy {
	p := &Policy{}
	if cfg.CircuitBreaker.Enabled {
		p.circuitBreaker = NewCircuitBreaker(name, cfg.CircuitBreaker)
	}
	if cfg.Retry.Enabled {
		p.retry = NewRetryPolicy(cfg.Retry)
	}
	if cfg.Bulkhead.Enabled {
		p.bulkhead = NewBulkhead(cfg.Bulkhead)
	}
	return p
}

func (p *Policy) Execute(ctx context.Context, fn func(context.Context) error) error {
	guarded := fn
	if cb := p.circuitBreaker; cb != nil {
		guarded = func(ctx context.Context) error {
			return cb.Do(func() error { return fn(ctx) })
		}
	}

	attempted := guarded
	if rp := p.retry; rp != nil {
		attempted = func(ctx context.Context) error {
			return rp.Do(ctx, guarded)
		}
	}

	if p.bulkhead != nil {
		return p.bulkhead.Do(ctx, attempted)
	}
	return attempted(ctx)
}

// CircuitBreaker returns the breaker, or nil when it is disabled.
func (p *Policy) CircuitBreaker() *CircuitBreaker {
	return p.circuitBreaker
}

func (p *Policy) CircuitState() State {
	if p.circuitBreaker == nil {
		return StateClosed
	}
	return p.circuitBreaker.State()
}

func (p *Policy) IsCircuitOpen() bool {
	return p.CircuitState() == StateOpen
}

func (p *Policy) SetOnCircuitStateChange(fn func(from, to State)) {
	if p.circuitBreaker != nil {
		p.circuitBreaker.SetOnStateChange(fn)
	}
}

func (p *Policy) BulkheadStats() BulkheadStats {
	if p.bulkhead == nil {
		return BulkheadStats{}
	}
	return p.bulkhead.Stats()
}

// DisabledPolicy calls straight through.
type DisabledPolicy struct{}

func NewDisabledPolicy() *DisabledPolicy {
	return &DisabledPolicy{}
}

func (DisabledPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (DisabledPolicy) CircuitState() State { return StateClosed }

func (DisabledPolicy) SetOnCircuitStateChange(func(from, to State)) {}

// Call runs fn through e and returns its value. On error the zero value of
// T is returned.
func Call[T any](ctx context.Context, e Executor, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
