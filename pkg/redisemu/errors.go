package redisemu

import (
	"github.com/LavishGent/redisemu/internal/types"
)

type (
	// CacheError describes a backend fault.
	CacheError = types.CacheError
	// CommandError describes a command rejected because of its arguments.
	CommandError = types.CommandError
)

var (
	// ErrRedisUnavailable indicates that the Redis server is not available.
	ErrRedisUnavailable = types.ErrRedisUnavailable
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrClosed indicates that the backend has been closed.
	ErrClosed = types.ErrClosed
	// ErrBulkheadFull indicates that the bulkhead is at capacity.
	ErrBulkheadFull = types.ErrBulkheadFull
	// ErrBulkheadTimeout indicates that the bulkhead acquisition timed out.
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
	// ErrNoBackend indicates that no backend is configured.
	ErrNoBackend = types.ErrNoBackend
	// ErrCacheMiss is what a Backend returns from Read for a missing key.
	// Client methods never return it.
	ErrCacheMiss = types.ErrCacheMiss

	// ErrInvalidKey indicates that a key was rejected by validation.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrWrongArgCount indicates a command was given the wrong number of arguments.
	ErrWrongArgCount = types.ErrWrongArgCount
	// ErrSyntax indicates conflicting or unknown command flags.
	ErrSyntax = types.ErrSyntax
	// ErrInvalidExpire indicates a non-positive or oversized expiry.
	ErrInvalidExpire = types.ErrInvalidExpire
	// ErrNotInteger indicates a value or argument is not a base-10 integer.
	ErrNotInteger = types.ErrNotInteger
	// ErrIntegerOverflow indicates an increment would overflow int64.
	ErrIntegerOverflow = types.ErrIntegerOverflow
	// ErrUnknownCommand indicates Do was given a command it does not know.
	ErrUnknownCommand = types.ErrUnknownCommand
)

// IsCallerError returns true if err was caused by how a command was called.
func IsCallerError(err error) bool {
	return types.IsCallerError(err)
}

// IsInvalidKey returns true if err was caused by key validation.
func IsInvalidKey(err error) bool {
	return types.IsInvalidKey(err)
}

// IsRedisUnavailable returns true if the error indicates Redis is unavailable.
func IsRedisUnavailable(err error) bool {
	return types.IsRedisUnavailable(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
