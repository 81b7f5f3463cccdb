package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrRedisUnavailable = errors.New("cache: redis unavailable")
	ErrCircuitOpen      = errors.New("cache: circuit breaker open")
	ErrClosed           = errors.New("cache: backend closed")
	ErrBulkheadFull     = errors.New("cache: bulkhead at capacity")
	ErrBulkheadTimeout  = errors.New("cache: bulkhead timeout")
	ErrNoBackend        = errors.New("emulator: no backend configured")
)

// Caller errors. These are returned before any backend call is issued.
var (
	ErrInvalidKey      = errors.New("emulator: invalid key")
	ErrWrongArgCount   = errors.New("emulator: wrong number of arguments")
	ErrSyntax          = errors.New("emulator: syntax error")
	ErrInvalidExpire   = errors.New("emulator: invalid expire time")
	ErrNotInteger      = errors.New("emulator: value is not an integer or out of range")
	ErrIntegerOverflow = errors.New("emulator: increment or decrement would overflow")
	ErrUnknownCommand  = errors.New("emulator: unknown command")
)

// CacheError describes a backend fault.
type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

// CommandError describes a command rejected because of how it was called.
type CommandError struct {
	Command string
	Key     string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Command, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func NewCommandError(command, key string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Key:     key,
		Err:     err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsRedisUnavailable(err error) bool {
	return errors.Is(err, ErrRedisUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsCallerError reports whether err was caused by the arguments of a
// command rather than by the backend.
func IsCallerError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return true
	}
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrWrongArgCount) ||
		errors.Is(err, ErrSyntax) ||
		errors.Is(err, ErrInvalidExpire) ||
		errors.Is(err, ErrUnknownCommand)
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// A miss is an answer, not a fault
	if IsCacheMiss(err) {
		return false
	}

	if IsCircuitOpen(err) {
		return false
	}

	if errors.Is(err, ErrClosed) {
		return false
	}

	if errors.Is(err, ErrBulkheadFull) || errors.Is(err, ErrBulkheadTimeout) {
		return false
	}

	if IsCallerError(err) {
		return false
	}

	return true
}
