package resilience

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/LavishGent/redisemu/internal/types"
)

var (
	ErrCircuitOpen     = types.ErrCircuitOpen
	ErrBulkheadFull    = types.ErrBulkheadFull
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

func IsBulkheadError(err error) bool {
	return errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout)
}

// IsFault reports whether err means the backend itself misbehaved. Misses,
// caller errors and cancellation by the caller are not faults.
func IsFault(err error) bool {
	switch {
	case err == nil:
		return false
	case types.IsCacheMiss(err), types.IsCallerError(err):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// IsRetryable determines if an error is transient and worth retrying.
func IsRetryable(err error) bool {
	if !IsFault(err) || !types.IsRetryable(err) {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Unclassified faults are retried.
	return true
}
