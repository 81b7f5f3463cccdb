// Package emulator implements Redis string commands on top of a backend that
// can only read, write, check, delete and clear keys.
//
// Several commands cannot be reproduced exactly on such a backend and behave
// differently from Redis on purpose:
//
//   - TTL reports -1 for every existing key, since remaining time cannot be read back.
//   - KEYS always returns an empty list, since keys cannot be enumerated.
//   - INCR, DECR, EXPIRE, SETNX and SET NX/XX read and then write. Concurrent
//     callers on the same key can lose updates.
//   - Pipelined and Multi run each command as it is issued. Nothing is
//     batched or rolled back.
package emulator

import (
	"context"
	"log/slog"
	"math"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/LavishGent/redisemu/internal/metrics"
	"github.com/LavishGent/redisemu/internal/types"
)

// InfoText is the fixed reply to INFO.
const InfoText = "# Redis Emulator\r\nredis_version:emulated\r\nredis_mode:standalone\r\n"

const (
	replyOK   = "OK"
	replyPong = "PONG"
)

// Source supplies the backend a command runs against. *runtime.Runtime
// satisfies it.
type Source interface {
	Backend(ctx context.Context) (types.Backend, error)
}

type staticSource struct {
	backend types.Backend
}

func (s staticSource) Backend(context.Context) (types.Backend, error) {
	if s.backend == nil {
		return nil, types.ErrNoBackend
	}
	return s.backend, nil
}

// Processor runs commands. It holds no locks and keeps no state of its own
// beyond its configuration; all data lives in the backend.
type Processor struct {
	source    Source
	logger    *slog.Logger
	metrics   types.MetricsRecorder
	validator *types.KeyValidator
	strict    bool
}

// New creates a processor bound to a single backend.
func New(backend types.Backend, opts ...Option) *Processor {
	return NewWithSource(staticSource{backend: backend}, opts...)
}

// NewWithSource creates a processor that looks up its backend from src on
// every command.
func NewWithSource(src Source, opts ...Option) *Processor {
	o := applyOptions(opts)
	return &Processor{
		source:    src,
		logger:    o.Logger.With("component", "emulator"),
		metrics:   o.Metrics,
		validator: o.Validator,
		strict:    o.StrictIntegers,
	}
}

func (p *Processor) backend(ctx context.Context) (types.Backend, error) {
	return p.source.Backend(ctx)
}

func (p *Processor) validate(command string, keys ...string) error {
	if p.validator == nil {
		return nil
	}
	for _, key := range keys {
		if err := p.validator.Validate(key); err != nil {
			return types.NewCommandError(command, key, err)
		}
	}
	return nil
}

// read returns the value of key, with ok false when it is absent.
func read(ctx context.Context, b types.Backend, key string) (string, bool, error) {
	raw, err := b.Read(ctx, key)
	if err != nil {
		if types.IsCacheMiss(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(raw), true, nil
}

// Get returns the value of key.
func (p *Processor) Get(ctx context.Context, key string) (string, bool, error) {
	defer metrics.StartCommand(p.metrics, "GET").Stop()

	if err := p.validate("GET", key); err != nil {
		return "", false, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return "", false, err
	}
	return read(ctx, b, key)
}

// Set stores value under key. With NX or XX it may decide not to write, in
// which case it returns ok false.
func (p *Processor) Set(ctx context.Context, key, value string, opts ...SetOption) (string, bool, error) {
	defer metrics.StartCommand(p.metrics, "SET").Stop()

	if err := p.validate("SET", key); err != nil {
		return "", false, err
	}
	o := applySetOptions(opts)
	writeOpts, err := o.expiry()
	if err != nil {
		return "", false, types.NewCommandError("SET", key, err)
	}

	b, err := p.backend(ctx)
	if err != nil {
		return "", false, err
	}

	if o.NX || o.XX {
		exists, err := b.Exists(ctx, key)
		if err != nil {
			return "", false, err
		}
		if (o.NX && exists) || (o.XX && !exists) {
			p.logger.Debug("SET condition not met", "key", key, "nx", o.NX, "xx", o.XX)
			return "", false, nil
		}
	}

	if err := b.Write(ctx, key, []byte(value), writeOpts); err != nil {
		return "", false, err
	}
	return replyOK, true, nil
}

// Del removes keys one by one and returns how many existed.
func (p *Processor) Del(ctx context.Context, keys ...string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "DEL").Stop()

	if len(keys) == 0 {
		return 0, types.NewCommandError("DEL", "", types.ErrWrongArgCount)
	}
	if err := p.validate("DEL", keys...); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, key := range keys {
		ok, err := b.Delete(ctx, key)
		if err != nil {
			return 0, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// Exists counts the keys that exist. A key given twice is counted twice.
func (p *Processor) Exists(ctx context.Context, keys ...string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "EXISTS").Stop()

	if len(keys) == 0 {
		return 0, types.NewCommandError("EXISTS", "", types.ErrWrongArgCount)
	}
	if err := p.validate("EXISTS", keys...); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, key := range keys {
		ok, err := b.Exists(ctx, key)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Expire rewrites the current value of key with a new expiry. It returns 0
// when the key is absent. A non-positive seconds deletes the key.
func (p *Processor) Expire(ctx context.Context, key string, seconds int64) (int64, error) {
	defer metrics.StartCommand(p.metrics, "EXPIRE").Stop()

	if err := p.validate("EXPIRE", key); err != nil {
		return 0, err
	}
	var writeOpts *types.WriteOptions
	if seconds > 0 {
		ttl, err := toTTL(seconds, time.Second)
		if err != nil {
			return 0, types.NewCommandError("EXPIRE", key, err)
		}
		writeOpts = types.WithTTL(ttl)
	}

	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	value, ok, err := read(ctx, b, key)
	if err != nil || !ok {
		return 0, err
	}

	if writeOpts == nil {
		if _, err := b.Delete(ctx, key); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err := b.Write(ctx, key, []byte(value), writeOpts); err != nil {
		return 0, err
	}
	return 1, nil
}

// TTL returns -2 for an absent key and -1 for any existing one.
func (p *Processor) TTL(ctx context.Context, key string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "TTL").Stop()

	if err := p.validate("TTL", key); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	ok, err := b.Exists(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -2, nil
	}
	p.logger.Debug("TTL reported without remaining time", "key", key)
	return -1, nil
}

// Keys always returns an empty list.
func (p *Processor) Keys(ctx context.Context, pattern string) ([]string, error) {
	defer metrics.StartCommand(p.metrics, "KEYS").Stop()

	p.logger.Debug("KEYS cannot enumerate the backend", "pattern", pattern)
	return []string{}, nil
}

// FlushDB clears the backend.
func (p *Processor) FlushDB(ctx context.Context) (string, error) {
	defer metrics.StartCommand(p.metrics, "FLUSHDB").Stop()

	b, err := p.backend(ctx)
	if err != nil {
		return "", err
	}
	if err := b.Clear(ctx); err != nil {
		return "", err
	}
	p.logger.Info("Backend flushed", "backend", b.Name())
	return replyOK, nil
}

// Ping echoes message, or returns PONG without one.
func (p *Processor) Ping(ctx context.Context, message ...string) (string, error) {
	defer metrics.StartCommand(p.metrics, "PING").Stop()

	switch len(message) {
	case 0:
		return replyPong, nil
	case 1:
		return message[0], nil
	default:
		return "", types.NewCommandError("PING", "", types.ErrWrongArgCount)
	}
}

// Info returns InfoText whatever the section.
func (p *Processor) Info(ctx context.Context, section ...string) (string, error) {
	defer metrics.StartCommand(p.metrics, "INFO").Stop()
	return InfoText, nil
}

func (p *Processor) Incr(ctx context.Context, key string) (int64, error) {
	return p.incrBy(ctx, "INCR", key, 1)
}

func (p *Processor) Decr(ctx context.Context, key string) (int64, error) {
	return p.incrBy(ctx, "DECR", key, -1)
}

func (p *Processor) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	return p.incrBy(ctx, "INCRBY", key, n)
}

func (p *Processor) DecrBy(ctx context.Context, key string, n int64) (int64, error) {
	if n == math.MinInt64 {
		return 0, types.NewCommandError("DECRBY", key, types.ErrIntegerOverflow)
	}
	return p.incrBy(ctx, "DECRBY", key, -n)
}

// incrBy reads key, adds delta and writes the result back without expiry.
// The read and the write are separate backend calls.
func (p *Processor) incrBy(ctx context.Context, command, key string, delta int64) (int64, error) {
	defer metrics.StartCommand(p.metrics, command).Stop()

	if err := p.validate(command, key); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	value, ok, err := read(ctx, b, key)
	if err != nil {
		return 0, err
	}

	var current int64
	if ok {
		current, err = p.parseCounter(value)
		if err != nil {
			return 0, types.NewCommandError(command, key, err)
		}
	}

	next := current + delta
	if (delta > 0 && next < current) || (delta < 0 && next > current) {
		return 0, types.NewCommandError(command, key, types.ErrIntegerOverflow)
	}

	if err := b.Write(ctx, key, []byte(strconv.FormatInt(next, 10)), nil); err != nil {
		return 0, err
	}
	return next, nil
}

// parseCounter reads a stored counter. Strict mode wants a whole base-10
// integer; otherwise the leading sign and digits count and the rest is
// ignored, so "12abc" is 12 and "abc" is 0.
func (p *Processor) parseCounter(value string) (int64, error) {
	if p.strict {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, types.ErrNotInteger
		}
		return n, nil
	}

	n, whole, err := leadingInt(value)
	if errors.Is(err, strconv.ErrRange) {
		return 0, types.ErrIntegerOverflow
	}
	if !whole {
		p.logger.Debug("Non-integer value counted by its leading digits", "counted", n)
	}
	return n, nil
}

// leadingInt parses the optional sign and digits after leading whitespace.
// Text without digits is 0. whole reports whether nothing followed the digits.
func leadingInt(s string) (n int64, whole bool, err error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false, nil
	}
	n, err = strconv.ParseInt(s[:end], 10, 64)
	return n, end == len(s), err
}

// MGet reads each key in order. Absent keys yield nil entries.
func (p *Processor) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	defer metrics.StartCommand(p.metrics, "MGET").Stop()

	if len(keys) == 0 {
		return nil, types.NewCommandError("MGET", "", types.ErrWrongArgCount)
	}
	if err := p.validate("MGET", keys...); err != nil {
		return nil, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]*string, len(keys))
	for i, key := range keys {
		value, ok, err := read(ctx, b, key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[i] = &value
		}
	}
	return values, nil
}

// MSet writes key/value pairs in order, each without expiry.
func (p *Processor) MSet(ctx context.Context, pairs ...string) (string, error) {
	defer metrics.StartCommand(p.metrics, "MSET").Stop()

	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return "", types.NewCommandError("MSET", "", types.ErrWrongArgCount)
	}
	keys := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		keys = append(keys, pairs[i])
	}
	if err := p.validate("MSET", keys...); err != nil {
		return "", err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return "", err
	}

	for i := 0; i < len(pairs); i += 2 {
		if err := b.Write(ctx, pairs[i], []byte(pairs[i+1]), nil); err != nil {
			return "", err
		}
	}
	return replyOK, nil
}

// SetEx stores value under key with an expiry of seconds.
func (p *Processor) SetEx(ctx context.Context, key string, seconds int64, value string) (string, error) {
	defer metrics.StartCommand(p.metrics, "SETEX").Stop()

	if err := p.validate("SETEX", key); err != nil {
		return "", err
	}
	ttl, err := toTTL(seconds, time.Second)
	if err != nil {
		return "", types.NewCommandError("SETEX", key, err)
	}
	b, err := p.backend(ctx)
	if err != nil {
		return "", err
	}
	if err := b.Write(ctx, key, []byte(value), types.WithTTL(ttl)); err != nil {
		return "", err
	}
	return replyOK, nil
}

// SetNX stores value only when key is absent and returns 1 if it wrote.
func (p *Processor) SetNX(ctx context.Context, key, value string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "SETNX").Stop()

	if err := p.validate("SETNX", key); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	exists, err := b.Exists(ctx, key)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}
	if err := b.Write(ctx, key, []byte(value), nil); err != nil {
		return 0, err
	}
	return 1, nil
}

// GetSet stores value and returns what key held before.
func (p *Processor) GetSet(ctx context.Context, key, value string) (string, bool, error) {
	defer metrics.StartCommand(p.metrics, "GETSET").Stop()

	if err := p.validate("GETSET", key); err != nil {
		return "", false, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return "", false, err
	}
	prior, ok, err := read(ctx, b, key)
	if err != nil {
		return "", false, err
	}
	if err := b.Write(ctx, key, []byte(value), nil); err != nil {
		return "", false, err
	}
	return prior, ok, nil
}

// Append adds value to the end of key and returns the new length in
// characters. The rewritten key has no expiry.
func (p *Processor) Append(ctx context.Context, key, value string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "APPEND").Stop()

	if err := p.validate("APPEND", key); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	prior, _, err := read(ctx, b, key)
	if err != nil {
		return 0, err
	}
	result := prior + value
	if err := b.Write(ctx, key, []byte(result), nil); err != nil {
		return 0, err
	}
	return int64(utf8.RuneCountInString(result)), nil
}

// StrLen returns the length of key in characters, or 0 when absent.
func (p *Processor) StrLen(ctx context.Context, key string) (int64, error) {
	defer metrics.StartCommand(p.metrics, "STRLEN").Stop()

	if err := p.validate("STRLEN", key); err != nil {
		return 0, err
	}
	b, err := p.backend(ctx)
	if err != nil {
		return 0, err
	}
	value, _, err := read(ctx, b, key)
	if err != nil {
		return 0, err
	}
	return int64(utf8.RuneCountInString(value)), nil
}

// Pipelined calls fn with p. Each command fn issues runs immediately.
func (p *Processor) Pipelined(ctx context.Context, fn func(*Processor) error) error {
	return p.group(ctx, "PIPELINED", fn)
}

// Multi is Pipelined under another name. It is not a transaction: a failing
// command does not undo the ones before it.
func (p *Processor) Multi(ctx context.Context, fn func(*Processor) error) error {
	return p.group(ctx, "MULTI", fn)
}

func (p *Processor) group(ctx context.Context, command string, fn func(*Processor) error) error {
	defer metrics.StartCommand(p.metrics, command).Stop()

	if fn == nil {
		return types.NewCommandError(command, "", types.ErrWrongArgCount)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(p)
}

// PipelinedResult is Pipelined for a closure that produces a value, which
// is returned along with the closure's error.
func PipelinedResult[T any](ctx context.Context, p *Processor, fn func(*Processor) (T, error)) (T, error) {
	return groupResult(ctx, p, "PIPELINED", fn)
}

// MultiResult is Multi for a closure that produces a value.
func MultiResult[T any](ctx context.Context, p *Processor, fn func(*Processor) (T, error)) (T, error) {
	return groupResult(ctx, p, "MULTI", fn)
}

func groupResult[T any](ctx context.Context, p *Processor, command string, fn func(*Processor) (T, error)) (T, error) {
	var result T
	var run func(*Processor) error
	if fn != nil {
		run = func(tx *Processor) error {
			var err error
			result, err = fn(tx)
			return err
		}
	}
	err := p.group(ctx, command, run)
	return result, err
}

// Connected always reports true.
func (p *Processor) Connected() bool {
	return true
}

// Close does nothing. The backend's lifetime belongs to whoever created it.
func (p *Processor) Close() error {
	return nil
}
