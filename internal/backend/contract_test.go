package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/types"
)

// fakeClock is shared by a backend under test so expiry can be driven
// without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
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

type fixture struct {
	name string
	new  func(t *testing.T, clock *fakeClock) types.Backend
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMemoryBackend(t *testing.T, clock *fakeClock) *MemoryBackend {
	t.Helper()
	mb, err := NewMemoryBackend(config.ForTesting().Memory, discardLogger())
	if err != nil {
		t.Fatalf("NewMemoryBackend() error = %v", err)
	}
	mb.now = clock.Now
	t.Cleanup(func() { _ = mb.Close() })
	return mb
}

func newTestBoltBackend(t *testing.T, clock *fakeClock) *BoltBackend {
	t.Helper()
	cfg := config.ForTesting().Bolt
	cfg.Path = filepath.Join(t.TempDir(), "contract.db")
	cfg.NoSync = true

	bb, err := NewBoltBackend(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewBoltBackend() error = %v", err)
	}
	bb.now = clock.Now
	t.Cleanup(func() { _ = bb.Close() })
	return bb
}

func storingFixtures() []fixture {
	return []fixture{
		{"memory", func(t *testing.T, c *fakeClock) types.Backend { return newTestMemoryBackend(t, c) }},
		{"bolt", func(t *testing.T, c *fakeClock) types.Backend { return newTestBoltBackend(t, c) }},
		{"instrumented-memory", func(t *testing.T, c *fakeClock) types.Backend {
			return NewInstrumentedBackend(newTestMemoryBackend(t, c), &countingRecorder{})
		}},
	}
}

func TestBackendContract(t *testing.T) {
	for _, fx := range storingFixtures() {
		t.Run(fx.name, func(t *testing.T) {
			runContract(t, fx)
		})
	}
}

func runContract(t *testing.T, fx fixture) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		if _, err := b.Read(ctx, "nope"); !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Read() error = %v, want ErrCacheMiss", err)
		}
		if ok, err := b.Exists(ctx, "nope"); err != nil || ok {
			t.Errorf("Exists() = %v, %v, want false, nil", ok, err)
		}
		if ok, err := b.Delete(ctx, "nope"); err != nil || ok {
			t.Errorf("Delete() = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("write then read", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		if err := b.Write(ctx, "k", []byte("v1"), nil); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := b.Read(ctx, "k")
		if err != nil || string(got) != "v1" {
			t.Errorf("Read() = %q, %v, want v1", got, err)
		}
		if ok, _ := b.Exists(ctx, "k"); !ok {
			t.Error("Exists() = false after Write")
		}
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		_ = b.Write(ctx, "k", []byte("first"), nil)
		_ = b.Write(ctx, "k", []byte("second"), nil)

		if got, _ := b.Read(ctx, "k"); string(got) != "second" {
			t.Errorf("Read() = %q, want second", got)
		}
	})

	t.Run("empty value", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		_ = b.Write(ctx, "k", []byte{}, nil)

		got, err := b.Read(ctx, "k")
		if err != nil || len(got) != 0 {
			t.Errorf("Read() = %q, %v, want empty value", got, err)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		clock := newFakeClock()
		b := fx.new(t, clock)

		_ = b.Write(ctx, "k", []byte("v"), types.WithTTL(time.Second))
		clock.Advance(500 * time.Millisecond)
		if ok, _ := b.Exists(ctx, "k"); !ok {
			t.Fatal("key expired early")
		}

		clock.Advance(time.Second)
		if ok, _ := b.Exists(ctx, "k"); ok {
			t.Error("Exists() = true after expiry")
		}
		if _, err := b.Read(ctx, "k"); !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Read() error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("far-future expiry", func(t *testing.T) {
		clock := newFakeClock()
		b := fx.new(t, clock)

		// Past the last instant unix nanoseconds can represent.
		_ = b.Write(ctx, "k", []byte("v"), types.WithTTL(8_000_000_000*time.Second))
		clock.Advance(100 * 365 * 24 * time.Hour)

		if got, err := b.Read(ctx, "k"); err != nil || string(got) != "v" {
			t.Errorf("Read() = %q, %v, want v", got, err)
		}
	})

	t.Run("write without ttl clears expiry", func(t *testing.T) {
		clock := newFakeClock()
		b := fx.new(t, clock)

		_ = b.Write(ctx, "k", []byte("v1"), types.WithTTL(time.Second))
		_ = b.Write(ctx, "k", []byte("v2"), nil)
		clock.Advance(time.Hour)

		if got, err := b.Read(ctx, "k"); err != nil || string(got) != "v2" {
			t.Errorf("Read() = %q, %v, want v2", got, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		_ = b.Write(ctx, "k", []byte("v"), nil)
		if ok, err := b.Delete(ctx, "k"); err != nil || !ok {
			t.Errorf("first Delete() = %v, %v, want true", ok, err)
		}
		if ok, _ := b.Delete(ctx, "k"); ok {
			t.Error("second Delete() = true, want false")
		}
		if ok, _ := b.Exists(ctx, "k"); ok {
			t.Error("Exists() = true after Delete")
		}
	})

	t.Run("delete expired reports absent", func(t *testing.T) {
		clock := newFakeClock()
		b := fx.new(t, clock)

		_ = b.Write(ctx, "k", []byte("v"), types.WithTTL(time.Second))
		clock.Advance(2 * time.Second)

		if ok, err := b.Delete(ctx, "k"); err != nil || ok {
			t.Errorf("Delete() = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		for _, k := range []string{"a", "b", "c"} {
			_ = b.Write(ctx, k, []byte(k), nil)
		}
		_ = b.Write(ctx, "ttl", []byte("x"), types.WithTTL(time.Minute))

		if err := b.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		for _, k := range []string{"a", "b", "c", "ttl"} {
			if ok, _ := b.Exists(ctx, k); ok {
				t.Errorf("Exists(%q) = true after Clear", k)
			}
		}

		_ = b.Write(ctx, "a", []byte("again"), nil)
		if got, _ := b.Read(ctx, "a"); string(got) != "again" {
			t.Errorf("Read() after Clear = %q, want again", got)
		}
	})

	t.Run("stats", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		_ = b.Write(ctx, "k", []byte("v"), nil)
		_, _ = b.Read(ctx, "k")
		_, _ = b.Read(ctx, "missing")
		_, _ = b.Delete(ctx, "k")

		stats := b.(types.StatsProvider).Stats()
		if stats.Writes != 1 || stats.Hits != 1 || stats.Misses != 1 || stats.Deletes != 1 {
			t.Errorf("Stats() = %+v, want one of each", stats)
		}
	})

	t.Run("closed", func(t *testing.T) {
		b := fx.new(t, newFakeClock())

		if err := b.(types.Closer).Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if b.(types.AvailabilityChecker).IsAvailable() {
			t.Error("IsAvailable() = true after Close")
		}
		if err := b.Write(ctx, "k", []byte("v"), nil); !errors.Is(err, types.ErrClosed) {
			t.Errorf("Write() after Close error = %v, want ErrClosed", err)
		}
		if _, err := b.Read(ctx, "k"); !errors.Is(err, types.ErrClosed) {
			t.Errorf("Read() after Close error = %v, want ErrClosed", err)
		}
		if err := b.(types.Closer).Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}

func TestNullBackend(t *testing.T) {
	ctx := context.Background()
	b := NewNullBackend()

	if err := b.Write(ctx, "k", []byte("v"), nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := b.Read(ctx, "k"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Read() error = %v, want ErrCacheMiss", err)
	}
	if ok, _ := b.Exists(ctx, "k"); ok {
		t.Error("Exists() = true on null backend")
	}
	if ok, _ := b.Delete(ctx, "k"); ok {
		t.Error("Delete() = true on null backend")
	}
	if err := b.Clear(ctx); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
	if b.Name() != config.BackendNull {
		t.Errorf("Name() = %q, want %q", b.Name(), config.BackendNull)
	}
}
