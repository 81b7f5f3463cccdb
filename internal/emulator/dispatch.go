package emulator

import (
	"context"
	"strconv"
	"strings"

	"github.com/LavishGent/redisemu/internal/types"
)

// Do runs the command called name with textual arguments, the way a
// front end that receives whole command lines would. Replies are a string,
// an int64, nil for an absent value, or []any for list replies.
//
// MULTI and PIPELINE need a closure and are not available here.
func (p *Processor) Do(ctx context.Context, name string, args ...string) (any, error) {
	cmd := strings.ToUpper(name)

	switch cmd {
	case "GET":
		if err := arity(cmd, args, 1, 1); err != nil {
			return nil, err
		}
		return bulk(p.Get(ctx, args[0]))

	case "SET":
		if err := arity(cmd, args, 2, -1); err != nil {
			return nil, err
		}
		opts, err := parseSetArgs(args[0], args[2:])
		if err != nil {
			return nil, err
		}
		return bulk(p.Set(ctx, args[0], args[1], opts...))

	case "DEL":
		if err := arity(cmd, args, 1, -1); err != nil {
			return nil, err
		}
		return integer(p.Del(ctx, args...))

	case "EXISTS":
		if err := arity(cmd, args, 1, -1); err != nil {
			return nil, err
		}
		return integer(p.Exists(ctx, args...))

	case "EXPIRE":
		if err := arity(cmd, args, 2, 2); err != nil {
			return nil, err
		}
		seconds, err := parseInt(cmd, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return integer(p.Expire(ctx, args[0], seconds))

	case "TTL":
		if err := arity(cmd, args, 1, 1); err != nil {
			return nil, err
		}
		return integer(p.TTL(ctx, args[0]))

	case "KEYS":
		if err := arity(cmd, args, 0, 1); err != nil {
			return nil, err
		}
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}
		keys, err := p.Keys(ctx, pattern)
		if err != nil {
			return nil, err
		}
		reply := make([]any, len(keys))
		for i, k := range keys {
			reply[i] = k
		}
		return reply, nil

	case "FLUSHDB":
		if err := arity(cmd, args, 0, 0); err != nil {
			return nil, err
		}
		return simple(p.FlushDB(ctx))

	case "PING":
		if err := arity(cmd, args, 0, 1); err != nil {
			return nil, err
		}
		return simple(p.Ping(ctx, args...))

	case "INFO":
		if err := arity(cmd, args, 0, 1); err != nil {
			return nil, err
		}
		return simple(p.Info(ctx, args...))

	case "INCR", "DECR":
		if err := arity(cmd, args, 1, 1); err != nil {
			return nil, err
		}
		if cmd == "INCR" {
			return integer(p.Incr(ctx, args[0]))
		}
		return integer(p.Decr(ctx, args[0]))

	case "INCRBY", "DECRBY":
		if err := arity(cmd, args, 2, 2); err != nil {
			return nil, err
		}
		n, err := parseInt(cmd, args[0], args[1])
		if err != nil {
			return nil, err
		}
		if cmd == "INCRBY" {
			return integer(p.IncrBy(ctx, args[0], n))
		}
		return integer(p.DecrBy(ctx, args[0], n))

	case "MGET":
		if err := arity(cmd, args, 1, -1); err != nil {
			return nil, err
		}
		values, err := p.MGet(ctx, args...)
		if err != nil {
			return nil, err
		}
		reply := make([]any, len(values))
		for i, v := range values {
			if v != nil {
				reply[i] = *v
			}
		}
		return reply, nil

	case "MSET":
		if len(args) == 0 || len(args)%2 != 0 {
			return nil, types.NewCommandError(cmd, "", types.ErrWrongArgCount)
		}
		return simple(p.MSet(ctx, args...))

	case "SETEX":
		if err := arity(cmd, args, 3, 3); err != nil {
			return nil, err
		}
		seconds, err := parseInt(cmd, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return simple(p.SetEx(ctx, args[0], seconds, args[2]))

	case "SETNX":
		if err := arity(cmd, args, 2, 2); err != nil {
			return nil, err
		}
		return integer(p.SetNX(ctx, args[0], args[1]))

	case "GETSET":
		if err := arity(cmd, args, 2, 2); err != nil {
			return nil, err
		}
		return bulk(p.GetSet(ctx, args[0], args[1]))

	case "APPEND":
		if err := arity(cmd, args, 2, 2); err != nil {
			return nil, err
		}
		return integer(p.Append(ctx, args[0], args[1]))

	case "STRLEN":
		if err := arity(cmd, args, 1, 1); err != nil {
			return nil, err
		}
		return integer(p.StrLen(ctx, args[0]))

	default:
		return nil, types.NewCommandError(cmd, "", types.ErrUnknownCommand)
	}
}

// arity checks that args has between lo and hi entries. A negative hi
// means no upper bound.
func arity(cmd string, args []string, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return types.NewCommandError(cmd, "", types.ErrWrongArgCount)
	}
	return nil
}

func parseInt(cmd, key, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, types.NewCommandError(cmd, key, types.ErrNotInteger)
	}
	return n, nil
}

// parseSetArgs reads the NX, XX, EX n and PX n tokens that follow
// SET key value.
func parseSetArgs(key string, tokens []string) ([]SetOption, error) {
	var opts []SetOption
	for i := 0; i < len(tokens); i++ {
		switch strings.ToUpper(tokens[i]) {
		case "NX":
			opts = append(opts, WithNX())
		case "XX":
			opts = append(opts, WithXX())
		case "EX", "PX":
			if i+1 >= len(tokens) {
				return nil, types.NewCommandError("SET", key, types.ErrSyntax)
			}
			n, err := parseInt("SET", key, tokens[i+1])
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(tokens[i], "EX") {
				opts = append(opts, WithEX(n))
			} else {
				opts = append(opts, WithPX(n))
			}
			i++
		default:
			return nil, types.NewCommandError("SET", key, types.ErrSyntax)
		}
	}
	return opts, nil
}

func bulk(value string, ok bool, err error) (any, error) {
	if err != nil || !ok {
		return nil, err
	}
	return value, nil
}

func integer(n int64, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

func simple(s string, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
