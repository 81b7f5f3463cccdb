// Package metrics collects backend and command metrics and publishes them.
package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// Tracker accumulates metrics in memory. It is safe for concurrent use.
type Tracker struct {
	hits        atomic.Int64
	misses      atomic.Int64
	writes      atomic.Int64
	deletes     atomic.Int64
	errors      atomic.Int64
	bytes       atomic.Int64
	commands    atomic.Int64
	stateChange atomic.Int64

	perCommandMu sync.Mutex
	perCommand   map[string]int64

	commandLatency *latencyRing
	backendLatency *latencyRing
}

func NewTracker() *Tracker {
	return &Tracker{
		perCommand:     make(map[string]int64),
		commandLatency: newLatencyRing(defaultLatencyBufferSize),
		backendLatency: newLatencyRing(defaultLatencyBufferSize),
	}
}

func (t *Tracker) RecordHit(_ string, _ string, latency time.Duration) {
	t.hits.Add(1)
	t.backendLatency.add(latency)
}

func (t *Tracker) RecordMiss(_ string, _ string, latency time.Duration) {
	t.misses.Add(1)
	t.backendLatency.add(latency)
}

func (t *Tracker) RecordWrite(_ string, _ string, size int, latency time.Duration) {
	t.writes.Add(1)
	t.bytes.Add(int64(size))
	t.backendLatency.add(latency)
}

func (t *Tracker) RecordDelete(_ string, _ string, latency time.Duration) {
	t.deletes.Add(1)
	t.backendLatency.add(latency)
}

func (t *Tracker) RecordError(_ string, _ string, _ error) {
	t.errors.Add(1)
}

// RecordCommand counts one executed command and its end-to-end latency.
func (t *Tracker) RecordCommand(command string, latency time.Duration) {
	t.commands.Add(1)
	t.commandLatency.add(latency)

	t.perCommandMu.Lock()
	t.perCommand[command]++
	t.perCommandMu.Unlock()
}

func (t *Tracker) RecordCircuitBreakerStateChange(_, _ string) {
	t.stateChange.Add(1)
}

// Snapshot returns the current counters and latency percentiles.
func (t *Tracker) Snapshot() types.MetricsSnapshot {
	hits, misses := t.hits.Load(), t.misses.Load()

	t.perCommandMu.Lock()
	perCommand := maps.Clone(t.perCommand)
	t.perCommandMu.Unlock()

	snap := types.MetricsSnapshot{
		Timestamp:           time.Now(),
		Hits:                hits,
		Misses:              misses,
		ReadCount:           hits + misses,
		WriteCount:          t.writes.Load(),
		DeleteCount:         t.deletes.Load(),
		ErrorCount:          t.errors.Load(),
		CommandCount:        t.commands.Load(),
		Commands:            perCommand,
		BytesWritten:        t.bytes.Load(),
		CircuitStateChanges: t.stateChange.Load(),
	}

	if cmd := t.commandLatency.samples(); len(cmd) > 0 {
		snap.AvgLatencyMs = millis(mean(cmd))
		snap.P50LatencyMs = millis(percentile(cmd, 50))
		snap.P95LatencyMs = millis(percentile(cmd, 95))
		snap.P99LatencyMs = millis(percentile(cmd, 99))
	}
	snap.BackendAvgLatencyMs = millis(mean(t.backendLatency.samples()))

	return snap
}

func (t *Tracker) Reset() {
	for _, c := range []*atomic.Int64{
		&t.hits, &t.misses, &t.writes, &t.deletes, &t.errors,
		&t.bytes, &t.commands, &t.stateChange,
	} {
		c.Store(0)
	}

	t.perCommandMu.Lock()
	clear(t.perCommand)
	t.perCommandMu.Unlock()

	t.commandLatency.reset()
	t.backendLatency.reset()
}

var _ types.MetricsRecorder = (*Tracker)(nil)
