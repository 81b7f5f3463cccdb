package metrics

import (
	"slices"
	"sync"
	"time"
)

const defaultLatencyBufferSize = 10000

// latencyRing keeps the most recent samples in a fixed circular buffer.
type latencyRing struct {
	mu    sync.RWMutex
	buf   []time.Duration
	next  int
	count int
}

func newLatencyRing(size int) *latencyRing {
	return &latencyRing{buf: make([]time.Duration, size)}
}

func (r *latencyRing) add(d time.Duration) {
	r.mu.Lock()
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// samples returns a sorted copy of the buffered samples.
func (r *latencyRing) samples() []time.Duration {
	r.mu.RLock()
	out := make([]time.Duration, r.count)
	if r.count < len(r.buf) {
		copy(out, r.buf[:r.count])
	} else {
		copy(out, r.buf)
	}
	r.mu.RUnlock()

	slices.Sort(out)
	return out
}

func (r *latencyRing) reset() {
	r.mu.Lock()
	r.next, r.count = 0, 0
	r.mu.Unlock()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mean(sorted []time.Duration) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return total / time.Duration(len(sorted))
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[(len(sorted)-1)*p/100]
}
