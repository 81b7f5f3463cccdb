package emulator

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

func TestDo(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProcessor()

	// Each step runs against the state left by the ones before it.
	steps := []struct {
		name string
		args []string
		want any
	}{
		{"ping", []string{"PING"}, "PONG"},
		{"ping message", []string{"ping", "hi"}, "hi"},
		{"get absent", []string{"GET", "x"}, nil},
		{"set", []string{"SET", "x", "5"}, "OK"},
		{"set nx existing", []string{"set", "x", "6", "nx"}, nil},
		{"incrby", []string{"INCRBY", "x", "3"}, int64(8)},
		{"decrby", []string{"DecrBy", "x", "10"}, int64(-2)},
		{"get", []string{"GET", "x"}, "-2"},
		{"incr", []string{"INCR", "n"}, int64(1)},
		{"decr", []string{"DECR", "n"}, int64(0)},
		{"mset", []string{"MSET", "a", "1", "b", "2"}, "OK"},
		{"mget", []string{"MGET", "a", "zz", "b"}, []any{"1", nil, "2"}},
		{"exists", []string{"EXISTS", "a", "b", "zz", "a"}, int64(3)},
		{"ttl present", []string{"TTL", "a"}, int64(-1)},
		{"ttl absent", []string{"TTL", "zz"}, int64(-2)},
		{"expire", []string{"EXPIRE", "a", "100"}, int64(1)},
		{"ttl after expire", []string{"TTL", "a"}, int64(-1)},
		{"keys", []string{"KEYS", "*"}, []any{}},
		{"keys no pattern", []string{"KEYS"}, []any{}},
		{"setex", []string{"SETEX", "s", "10", "v"}, "OK"},
		{"setnx new", []string{"SETNX", "nx", "1"}, int64(1)},
		{"setnx existing", []string{"SETNX", "nx", "2"}, int64(0)},
		{"getset", []string{"GETSET", "nx", "3"}, "1"},
		{"append", []string{"APPEND", "greet", "hello"}, int64(5)},
		{"strlen", []string{"STRLEN", "greet"}, int64(5)},
		{"set with ex", []string{"SET", "e", "v", "EX", "10"}, "OK"},
		{"set with px and xx", []string{"SET", "e", "w", "px", "500", "XX"}, "OK"},
		{"del", []string{"DEL", "a", "b", "zz"}, int64(2)},
		{"info", []string{"INFO"}, InfoText},
		{"flushdb", []string{"FLUSHDB"}, "OK"},
		{"exists after flush", []string{"EXISTS", "x", "n", "e"}, int64(0)},
	}

	for _, step := range steps {
		got, err := p.Do(ctx, step.args[0], step.args[1:]...)
		if err != nil {
			t.Fatalf("%s: Do(%v) error = %v", step.name, step.args, err)
		}
		if !reflect.DeepEqual(got, step.want) {
			t.Errorf("%s: Do(%v) = %#v, want %#v", step.name, step.args, got, step.want)
		}
	}
}

func TestDoSetOptions(t *testing.T) {
	ctx := context.Background()
	p, mb := newTestProcessor()

	if _, err := p.Do(ctx, "SET", "k", "v", "ex", "7"); err != nil {
		t.Fatalf("Do(SET EX) error = %v", err)
	}
	if e, _ := mb.entry("k"); e.ttl != 7*time.Second {
		t.Errorf("ttl = %v, want 7s", e.ttl)
	}

	if _, err := p.Do(ctx, "SET", "k", "v", "PX", "250"); err != nil {
		t.Fatalf("Do(SET PX) error = %v", err)
	}
	if e, _ := mb.entry("k"); e.ttl != 250*time.Millisecond {
		t.Errorf("ttl = %v, want 250ms", e.ttl)
	}
}

func TestDoErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown command", []string{"HSET", "h", "f", "v"}, types.ErrUnknownCommand},
		{"multi is not dispatchable", []string{"MULTI"}, types.ErrUnknownCommand},
		{"get without key", []string{"GET"}, types.ErrWrongArgCount},
		{"get too many", []string{"GET", "a", "b"}, types.ErrWrongArgCount},
		{"set without value", []string{"SET", "k"}, types.ErrWrongArgCount},
		{"del without keys", []string{"DEL"}, types.ErrWrongArgCount},
		{"mset odd", []string{"MSET", "a", "1", "b"}, types.ErrWrongArgCount},
		{"mset empty", []string{"MSET"}, types.ErrWrongArgCount},
		{"flushdb with args", []string{"FLUSHDB", "ASYNC"}, types.ErrWrongArgCount},
		{"expire non-integer", []string{"EXPIRE", "k", "soon"}, types.ErrNotInteger},
		{"incrby non-integer", []string{"INCRBY", "k", "1.5"}, types.ErrNotInteger},
		{"setex non-integer", []string{"SETEX", "k", "ten", "v"}, types.ErrNotInteger},
		{"setex zero", []string{"SETEX", "k", "0", "v"}, types.ErrInvalidExpire},
		{"set unknown flag", []string{"SET", "k", "v", "KEEPTTL"}, types.ErrSyntax},
		{"set ex without value", []string{"SET", "k", "v", "EX"}, types.ErrSyntax},
		{"set ex non-integer", []string{"SET", "k", "v", "EX", "x"}, types.ErrNotInteger},
		{"set nx and xx", []string{"SET", "k", "v", "NX", "XX"}, types.ErrSyntax},
		{"set ex and px", []string{"SET", "k", "v", "EX", "1", "PX", "1"}, types.ErrSyntax},
		{"set negative ex", []string{"SET", "k", "v", "EX", "-1"}, types.ErrInvalidExpire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mb := newTestProcessor()

			got, err := p.Do(ctx, tt.args[0], tt.args[1:]...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Do(%v) error = %v, want %v", tt.args, err, tt.want)
			}
			if got != nil {
				t.Errorf("Do(%v) reply = %#v, want nil on error", tt.args, got)
			}
			if n := mb.callCount(); n != 0 {
				t.Errorf("backend saw %d calls, want 0", n)
			}
		})
	}
}

func TestDoBackendFault(t *testing.T) {
	p, mb := newTestProcessor()
	mb.failOn["read"] = types.ErrRedisUnavailable

	if _, err := p.Do(context.Background(), "GET", "k"); err != types.ErrRedisUnavailable {
		t.Errorf("Do(GET) error = %v, want ErrRedisUnavailable", err)
	}
}
