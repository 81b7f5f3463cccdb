package emulator

import (
	"log/slog"
	"math"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// SetOptions holds the flags accepted by SET.
type SetOptions struct {
	NX bool
	XX bool

	// EX and PX are the raw expiry arguments; zero means not given.
	EX    int64
	PX    int64
	hasEX bool
	hasPX bool
}

type SetOption func(*SetOptions)

// WithNX only sets the key if it does not already exist.
func WithNX() SetOption {
	return func(o *SetOptions) {
		o.NX = true
	}
}

// WithXX only sets the key if it already exists.
func WithXX() SetOption {
	return func(o *SetOptions) {
		o.XX = true
	}
}

// WithEX expires the key after seconds.
func WithEX(seconds int64) SetOption {
	return func(o *SetOptions) {
		o.EX = seconds
		o.hasEX = true
	}
}

// WithPX expires the key after milliseconds.
func WithPX(milliseconds int64) SetOption {
	return func(o *SetOptions) {
		o.PX = milliseconds
		o.hasPX = true
	}
}

func applySetOptions(opts []SetOption) *SetOptions {
	o := &SetOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// expiry checks the flag combination and returns the write options it
// translates to. A nil result means the key does not expire.
func (o *SetOptions) expiry() (*types.WriteOptions, error) {
	if o.NX && o.XX {
		return nil, types.ErrSyntax
	}
	if o.hasEX && o.hasPX {
		return nil, types.ErrSyntax
	}

	var (
		ttl time.Duration
		err error
	)
	switch {
	case o.hasEX:
		ttl, err = toTTL(o.EX, time.Second)
	case o.hasPX:
		ttl, err = toTTL(o.PX, time.Millisecond)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return types.WithTTL(ttl), nil
}

// toTTL converts a positive count of unit into a duration.
func toTTL(n int64, unit time.Duration) (time.Duration, error) {
	if n <= 0 || n > math.MaxInt64/int64(unit) {
		return 0, types.ErrInvalidExpire
	}
	return time.Duration(n) * unit, nil
}

// Options configures a Processor.
type Options struct {
	Logger         *slog.Logger
	Metrics        types.MetricsRecorder
	Validator      *types.KeyValidator
	StrictIntegers bool
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMetrics(recorder types.MetricsRecorder) Option {
	return func(o *Options) {
		o.Metrics = recorder
	}
}

// WithValidator replaces the default key validator. A nil validator turns
// key validation off.
func WithValidator(v *types.KeyValidator) Option {
	return func(o *Options) {
		o.Validator = v
	}
}

// WithStrictIntegers makes the INCR family fail with ErrNotInteger on a
// stored value that is not a base-10 integer, instead of counting from 0.
func WithStrictIntegers(strict bool) Option {
	return func(o *Options) {
		o.StrictIntegers = strict
	}
}

func applyOptions(opts []Option) *Options {
	o := &Options{
		Validator: types.DefaultKeyValidator,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
