package emulator

import (
	"context"
	"sync"
	"testing"
	"time"
)

// hookBackend runs a hook after Read or Exists returns from the map, which
// lets a test park a command between its check and its write.
type hookBackend struct {
	*mapBackend
	afterRead   func(key string)
	afterExists func(key string)
}

func (h *hookBackend) Read(ctx context.Context, key string) ([]byte, error) {
	v, err := h.mapBackend.Read(ctx, key)
	if h.afterRead != nil {
		h.afterRead(key)
	}
	return v, err
}

func (h *hookBackend) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := h.mapBackend.Exists(ctx, key)
	if h.afterExists != nil {
		h.afterExists(key)
	}
	return ok, err
}

// barrier releases its callers once n of them have arrived.
func barrier(n int) func(string) {
	var wg sync.WaitGroup
	wg.Add(n)
	return func(string) {
		wg.Done()
		wg.Wait()
	}
}

func runTogether(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func TestIncrLosesConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	hb := &hookBackend{mapBackend: newMapBackend(), afterRead: barrier(2)}
	p := New(hb, WithLogger(discardLogger()))

	results := make([]int64, 2)
	runTogether(2, func(i int) {
		results[i], _ = p.Incr(ctx, "counter")
	})

	// Both callers read the same prior value, so one increment is lost.
	if results[0] != 1 || results[1] != 1 {
		t.Errorf("Incr results = %v, want [1 1]", results)
	}
	if e, _ := hb.entry("counter"); string(e.value) != "1" {
		t.Errorf("counter = %q, want 1 after lost update", e.value)
	}
}

func TestSetNXBothWinUnderRace(t *testing.T) {
	ctx := context.Background()
	hb := &hookBackend{mapBackend: newMapBackend(), afterExists: barrier(2)}
	p := New(hb, WithLogger(discardLogger()))

	results := make([]int64, 2)
	runTogether(2, func(i int) {
		results[i], _ = p.SetNX(ctx, "lock", "owner")
	})

	if results[0] != 1 || results[1] != 1 {
		t.Errorf("SetNX results = %v, want both callers to report a write", results)
	}
}

func TestExpireOverwritesConcurrentSet(t *testing.T) {
	ctx := context.Background()
	parked := make(chan struct{})
	resume := make(chan struct{})

	hb := &hookBackend{mapBackend: newMapBackend()}
	p := New(hb, WithLogger(discardLogger()))
	_, _, _ = p.Set(ctx, "k", "old")

	hb.afterRead = func(string) {
		close(parked)
		<-resume
	}

	done := make(chan int64)
	go func() {
		n, _ := p.Expire(ctx, "k", 60)
		done <- n
	}()

	select {
	case <-parked:
	case <-time.After(time.Second):
		t.Fatal("Expire never read the key")
	}
	_, _, _ = p.Set(ctx, "k", "new")
	close(resume)

	if n := <-done; n != 1 {
		t.Errorf("Expire() = %d, want 1", n)
	}
	e, _ := hb.entry("k")
	if string(e.value) != "old" || e.ttl != 60*time.Second {
		t.Errorf("entry = %q ttl %v, want the value Expire read with 60s", e.value, e.ttl)
	}
}
