package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/types"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		OpenDuration:        time.Second,
		HalfOpenMaxRequests: 2,
	})
	cb.now = clock.Now
	return cb, clock
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker("bolt", config.CircuitBreakerConfig{})

	if cb.Name() != "bolt" {
		t.Errorf("Name() = %s, want bolt", cb.Name())
	}
	if cb.failureThreshold != 5 || cb.successThreshold != 2 || cb.halfOpenMaxRequests != 3 {
		t.Errorf("thresholds = %d/%d/%d, want 5/2/3",
			cb.failureThreshold, cb.successThreshold, cb.halfOpenMaxRequests)
	}
	if cb.openDuration != 30*time.Second {
		t.Errorf("openDuration = %v, want 30s", cb.openDuration)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()

	for i := 0; i < 2; i++ {
		_ = cb.Do(func() error { return errBoom })
	}
	if cb.State() != StateClosed {
		t.Fatalf("state after 2 faults = %v, want closed", cb.State())
	}

	_ = cb.Do(func() error { return errBoom })
	if !cb.IsOpen() {
		t.Fatalf("state after 3 faults = %v, want open", cb.State())
	}

	called := false
	err := cb.Do(func() error { called = true; return nil })
	if !IsCircuitOpen(err) {
		t.Errorf("Do() on open circuit = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn was called while the circuit was open")
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker()

	_ = cb.Do(func() error { return errBoom })
	_ = cb.Do(func() error { return errBoom })
	_ = cb.Do(func() error { return nil })
	_ = cb.Do(func() error { return errBoom })

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
	if got := cb.Stats().ConsecutiveFails; got != 1 {
		t.Errorf("ConsecutiveFails = %d, want 1", got)
	}
}

func TestCircuitBreakerIgnoresNonFaults(t *testing.T) {
	cb, _ := newTestBreaker()

	for i := 0; i < 10; i++ {
		_ = cb.Do(func() error { return types.ErrCacheMiss })
		_ = cb.Do(func() error { return types.ErrInvalidKey })
	}

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed after misses and caller errors", cb.State())
	}
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	t.Run("closes after enough successes", func(t *testing.T) {
		cb, clock := newTestBreaker()
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}

		clock.Advance(999 * time.Millisecond)
		if cb.Allow() {
			t.Fatal("Allow() = true before open duration elapsed")
		}

		clock.Advance(time.Millisecond)
		if !cb.Allow() {
			t.Fatal("Allow() = false after open duration elapsed")
		}
		if cb.State() != StateHalfOpen {
			t.Fatalf("state = %v, want half-open", cb.State())
		}

		cb.RecordSuccess()
		if cb.State() != StateHalfOpen {
			t.Fatalf("state after 1 success = %v, want half-open", cb.State())
		}
		cb.RecordSuccess()
		if cb.State() != StateClosed {
			t.Errorf("state after 2 successes = %v, want closed", cb.State())
		}
	})

	t.Run("reopens on failure", func(t *testing.T) {
		cb, clock := newTestBreaker()
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		clock.Advance(time.Second)

		err := cb.Do(func() error { return errBoom })
		if !errors.Is(err, errBoom) {
			t.Fatalf("Do() = %v, want errBoom", err)
		}
		if !cb.IsOpen() {
			t.Errorf("state = %v, want open", cb.State())
		}
	})

	t.Run("limits half-open calls", func(t *testing.T) {
		cb, clock := newTestBreaker()
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		clock.Advance(time.Second)

		if !cb.Allow() || !cb.Allow() {
			t.Fatal("first two half-open calls should be allowed")
		}
		if cb.Allow() {
			t.Error("third half-open call allowed, want rejected")
		}
	})
}

func TestCircuitBreakerStateChangeCallback(t *testing.T) {
	cb, clock := newTestBreaker()

	var transitions []string
	cb.SetOnStateChange(func(from, to State) {
		// reading state from the callback must not deadlock
		_ = cb.Stats()
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Second)
	cb.Allow()
	cb.RecordSuccess()
	cb.RecordSuccess()

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb, _ := newTestBreaker()
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.State())
	}
	if cb.Stats().ConsecutiveFails != 0 {
		t.Errorf("ConsecutiveFails after Reset = %d, want 0", cb.Stats().ConsecutiveFails)
	}
}

func TestCircuitBreakerConcurrent(t *testing.T) {
	cb, _ := newTestBreaker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Do(func() error {
				if i%2 == 0 {
					return errBoom
				}
				return nil
			})
			_ = cb.State()
		}(i)
	}
	wg.Wait()
}
