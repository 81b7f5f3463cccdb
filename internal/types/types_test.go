package types

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithTTL(t *testing.T) {
	t.Run("positive ttl", func(t *testing.T) {
		opts := WithTTL(time.Minute)
		if opts == nil || opts.TTL != time.Minute {
			t.Errorf("WithTTL(1m) = %+v, want TTL=1m", opts)
		}
	})

	t.Run("zero ttl yields nil", func(t *testing.T) {
		if opts := WithTTL(0); opts != nil {
			t.Errorf("WithTTL(0) = %+v, want nil", opts)
		}
	})

	t.Run("negative ttl yields nil", func(t *testing.T) {
		if opts := WithTTL(-time.Second); opts != nil {
			t.Errorf("WithTTL(-1s) = %+v, want nil", opts)
		}
	})
}

func TestExpiryFrom(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if got := ExpiryFrom(nil, now); !got.IsZero() {
		t.Errorf("ExpiryFrom(nil) = %v, want zero", got)
	}
	if got := ExpiryFrom(&WriteOptions{}, now); !got.IsZero() {
		t.Errorf("ExpiryFrom(TTL=0) = %v, want zero", got)
	}
	if got := ExpiryFrom(&WriteOptions{TTL: time.Hour}, now); !got.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiryFrom(TTL=1h) = %v, want %v", got, now.Add(time.Hour))
	}
}

func TestBackendStatsHitRatio(t *testing.T) {
	if got := (BackendStats{}).HitRatio(); got != 0 {
		t.Errorf("HitRatio() with no reads = %f, want 0", got)
	}

	stats := BackendStats{Hits: 3, Misses: 1}
	if got := stats.HitRatio(); got != 0.75 {
		t.Errorf("HitRatio() = %f, want 0.75", got)
	}
}

func TestCacheErrorError(t *testing.T) {
	t.Run("with key", func(t *testing.T) {
		err := NewCacheError("Read", "user:123", "redis", errors.New("connection refused"))

		expected := "cache Read on redis [user:123]: connection refused"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %s, want %s", got, expected)
		}
	})

	t.Run("without key", func(t *testing.T) {
		err := NewCacheError("Clear", "", "memory", errors.New("operation failed"))

		expected := "cache Clear on memory: operation failed"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %s, want %s", got, expected)
		}
	})

	t.Run("unwraps", func(t *testing.T) {
		underlying := errors.New("underlying")
		err := NewCacheError("Write", "k", "bolt", underlying)
		if !errors.Is(err, underlying) {
			t.Error("errors.Is should see the wrapped error")
		}
	})
}

func TestCommandError(t *testing.T) {
	t.Run("with key", func(t *testing.T) {
		err := NewCommandError("SET", "k", ErrSyntax)
		expected := "SET [k]: emulator: syntax error"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %s, want %s", got, expected)
		}
	})

	t.Run("without key", func(t *testing.T) {
		err := NewCommandError("MSET", "", ErrWrongArgCount)
		expected := "MSET: emulator: wrong number of arguments"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %s, want %s", got, expected)
		}
		if !errors.Is(err, ErrWrongArgCount) {
			t.Error("errors.Is(err, ErrWrongArgCount) = false, want true")
		}
	})
}

func TestIsCacheMiss(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"direct ErrCacheMiss", ErrCacheMiss, true},
		{"wrapped ErrCacheMiss", NewCacheError("Read", "key", "memory", ErrCacheMiss), true},
		{"other error", errors.New("other"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCacheMiss(tt.err); got != tt.expect {
				t.Errorf("IsCacheMiss() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestIsCallerError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"wrong arg count", ErrWrongArgCount, true},
		{"syntax", ErrSyntax, true},
		{"invalid expire", fmt.Errorf("%w: -1", ErrInvalidExpire), true},
		{"invalid key", ValidateKey(""), true},
		{"unknown command", ErrUnknownCommand, true},
		{"command error", NewCommandError("INCR", "k", ErrNotInteger), true},
		{"cache miss", ErrCacheMiss, false},
		{"backend fault", NewCacheError("Read", "k", "redis", errors.New("timeout")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCallerError(tt.err); got != tt.expect {
				t.Errorf("IsCallerError() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"cache miss", ErrCacheMiss, false},
		{"circuit open", ErrCircuitOpen, false},
		{"closed", ErrClosed, false},
		{"invalid key", ErrInvalidKey, false},
		{"bulkhead full", ErrBulkheadFull, false},
		{"bulkhead timeout", ErrBulkheadTimeout, false},
		{"redis unavailable", ErrRedisUnavailable, true},
		{"generic error", errors.New("network error"), true},
		{"wrapped retryable", NewCacheError("Read", "key", "redis", errors.New("timeout")), true},
		{"wrapped non-retryable", NewCacheError("Read", "key", "redis", ErrCacheMiss), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expect {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestHealthStatusString(t *testing.T) {
	tests := []struct {
		status   HealthStatus
		expected string
	}{
		{HealthStatusHealthy, "healthy"},
		{HealthStatusDegraded, "degraded"},
		{HealthStatusUnhealthy, "unhealthy"},
		{HealthStatus(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("String() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestSecretString(t *testing.T) {
	s := NewSecretString("hunter2")

	if s.Value() != "hunter2" {
		t.Errorf("Value() = %s, want hunter2", s.Value())
	}
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %s, want [REDACTED]", s.String())
	}

	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"[REDACTED]"` {
		t.Errorf("MarshalJSON() = %s, want \"[REDACTED]\"", data)
	}

	var decoded SecretString
	if err := decoded.UnmarshalJSON([]byte(`"s3cret"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if decoded.Value() != "s3cret" {
		t.Errorf("decoded Value() = %s, want s3cret", decoded.Value())
	}

	if !NewSecretString("").IsEmpty() {
		t.Error("IsEmpty() = false for empty secret")
	}
}
