// Package types holds the contracts shared by the emulator, its backends
// and the public facade. It exists to break import cycles between
// pkg/redisemu and the internal packages.
package types

import "time"

// WriteOptions carries the optional expiry hint passed to Backend.Write.
type WriteOptions struct {
	TTL time.Duration
}

// WithTTL returns write options carrying ttl, or nil when ttl is not positive.
func WithTTL(ttl time.Duration) *WriteOptions {
	if ttl <= 0 {
		return nil
	}
	return &WriteOptions{TTL: ttl}
}

// ExpiryFrom resolves opts into an absolute expiry instant relative to now.
// The zero time means the entry never expires.
func ExpiryFrom(opts *WriteOptions, now time.Time) time.Time {
	if opts == nil || opts.TTL <= 0 {
		return time.Time{}
	}
	return now.Add(opts.TTL)
}

// BackendStats are the counters a backend keeps about its own traffic.
type BackendStats struct {
	Hits        int64
	Misses      int64
	Writes      int64
	Deletes     int64
	Expirations int64
	Evictions   int64
}

// HitRatio returns hits over total reads, or 0 before any read.
func (s BackendStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
