// Package resilience guards remote backend calls with a circuit breaker,
// bounded retries and a concurrency bulkhead.
package resilience

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a backend after repeated faults and tries it
// again once OpenDuration has elapsed. Only faults count against it: a miss
// or a caller error is a healthy answer from the backend.
type CircuitBreaker struct {
	name string

	failureThreshold    int
	successThreshold    int
	openDuration        time.Duration
	halfOpenMaxRequests int

	state atomic.Int32

	mu        sync.Mutex
	failures  int
	successes int
	trials    int
	openedAt  time.Time
	now       func() time.Time

	onStateChange func(from, to State)
}

// NewCircuitBreaker creates a breaker for the named backend. Zero config
// values fall back to 5 failures, 2 successes, 30s open and 3 trial calls.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:                name,
		failureThreshold:    orDefault(cfg.FailureThreshold, 5),
		successThreshold:    orDefault(cfg.SuccessThreshold, 2),
		openDuration:        cfg.OpenDuration,
		halfOpenMaxRequests: orDefault(cfg.HalfOpenMaxRequests, 3),
		now:                 time.Now,
	}
	if cb.openDuration <= 0 {
		cb.openDuration = 30 * time.Second
	}
	cb.state.Store(int32(StateClosed))
	return cb
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// Do runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Do(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.Record(err)
	return err
}

// Record books err as a success or a failure depending on whether it is a fault.
func (cb *CircuitBreaker) Record(err error) {
	if IsFault(err) {
		cb.RecordFailure()
		return
	}
	cb.RecordSuccess()
}

// Allow reports whether a call may proceed, moving an open circuit to
// half-open once its cool-down has passed.
func (cb *CircuitBreaker) Allow() bool {
	switch State(cb.state.Load()) {
	case StateClosed:
		return true

	case StateOpen:
		cb.mu.Lock()
		if cb.now().Sub(cb.openedAt) < cb.openDuration {
			cb.mu.Unlock()
			return false
		}
		notify := cb.setState(StateHalfOpen)
		cb.trials = 1
		cb.mu.Unlock()
		notify()
		return true

	case StateHalfOpen:
		cb.mu.Lock()
		defer cb.mu.Unlock()
		if cb.trials >= cb.halfOpenMaxRequests {
			return false
		}
		cb.trials++
		return true
	}
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := noop
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			notify = cb.setState(StateClosed)
		}
	}
	cb.mu.Unlock()
	notify()
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	notify := noop
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			notify = cb.setState(StateOpen)
		}
	case StateHalfOpen:
		notify = cb.setState(StateOpen)
	}
	cb.mu.Unlock()
	notify()
}

func noop() {}

// setState must be called with mu held. The returned func fires the state
// change callback and must be called after mu is released.
func (cb *CircuitBreaker) setState(to State) func() {
	from := State(cb.state.Load())
	if from == to {
		return noop
	}

	switch to {
	case StateClosed:
		cb.failures, cb.successes, cb.trials = 0, 0, 0
	case StateOpen:
		cb.openedAt = cb.now()
		cb.successes = 0
	case StateHalfOpen:
		cb.successes, cb.trials = 0, 0
	}
	cb.state.Store(int32(to))

	callback := cb.onStateChange
	if callback == nil {
		return noop
	}
	return func() { callback(from, to) }
}

func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// SetOnStateChange registers fn to run after every transition. fn runs
// without the breaker's lock held and may read its state.
func (cb *CircuitBreaker) SetOnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Reset forces the circuit closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures, cb.successes, cb.trials = 0, 0, 0
	cb.state.Store(int32(StateClosed))
}

func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:            cb.State(),
		ConsecutiveFails: cb.failures,
		ConsecutiveSuccs: cb.successes,
		HalfOpenRequests: cb.trials,
	}
}

type CircuitBreakerStats struct {
	State            State
	ConsecutiveFails int
	ConsecutiveSuccs int
	HalfOpenRequests int
}
