package emulator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

type mapEntry struct {
	value []byte
	ttl   time.Duration
}

// mapBackend is a plain map that logs every call and can be told to fail.
type mapBackend struct {
	mu     sync.Mutex
	data   map[string]mapEntry
	calls  []string
	failOn map[string]error
}

func newMapBackend() *mapBackend {
	return &mapBackend{
		data:   make(map[string]mapEntry),
		failOn: make(map[string]error),
	}
}

func (m *mapBackend) Name() string { return "map" }

func (m *mapBackend) record(op, key string) error {
	m.calls = append(m.calls, op+":"+key)
	return m.failOn[op]
}

func (m *mapBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("exists", key); err != nil {
		return false, err
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *mapBackend) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("read", key); err != nil {
		return nil, err
	}
	e, ok := m.data[key]
	if !ok {
		return nil, types.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *mapBackend) Write(_ context.Context, key string, value []byte, opts *types.WriteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write", key); err != nil {
		return err
	}
	e := mapEntry{value: append([]byte(nil), value...)}
	if opts != nil && opts.TTL > 0 {
		e.ttl = opts.TTL
	}
	m.data[key] = e
	return nil
}

func (m *mapBackend) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete", key); err != nil {
		return false, err
	}
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *mapBackend) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("clear", ""); err != nil {
		return err
	}
	m.data = make(map[string]mapEntry)
	return nil
}

func (m *mapBackend) entry(key string) (mapEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	return e, ok
}

func (m *mapBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mapBackend) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(opts ...Option) (*Processor, *mapBackend) {
	mb := newMapBackend()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(mb, opts...), mb
}

// commandRecorder counts RecordCommand calls by command.
type commandRecorder struct {
	mu       sync.Mutex
	commands map[string]int
}

func (r *commandRecorder) RecordHit(string, string, time.Duration)        {}
func (r *commandRecorder) RecordMiss(string, string, time.Duration)       {}
func (r *commandRecorder) RecordWrite(string, string, int, time.Duration) {}
func (r *commandRecorder) RecordDelete(string, string, time.Duration)     {}
func (r *commandRecorder) RecordError(string, string, error)              {}
func (r *commandRecorder) RecordCircuitBreakerStateChange(string, string) {}

func (r *commandRecorder) RecordCommand(command string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commands == nil {
		r.commands = make(map[string]int)
	}
	r.commands[command]++
}
