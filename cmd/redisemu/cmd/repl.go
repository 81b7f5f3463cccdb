package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LavishGent/redisemu/pkg/redisemu"
)

var errUnbalancedQuotes = errors.New("unbalanced quotes")

// repl executes one command per input line. Errors are printed and the
// session continues.
func repl(ctx context.Context, client *redisemu.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		tokens, err := tokenize(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, formatError(err))
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		switch strings.ToUpper(tokens[0]) {
		case "QUIT", "EXIT":
			return nil
		}

		reply, err := client.Do(ctx, tokens[0], tokens[1:]...)
		if err != nil {
			fmt.Fprintln(out, formatError(err))
			continue
		}
		fmt.Fprintln(out, formatReply(reply))
	}
	return scanner.Err()
}

// tokenize splits a command line on whitespace. Double quotes group a
// token and support \" \\ \n \r \t escapes.
func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quoted {
			switch {
			case c == '\\' && i+1 < len(line):
				i++
				switch line[i] {
				case 'n':
					current.WriteByte('\n')
				case 'r':
					current.WriteByte('\r')
				case 't':
					current.WriteByte('\t')
				default:
					current.WriteByte(line[i])
				}
			case c == '"':
				quoted = false
			default:
				current.WriteByte(c)
			}
			continue
		}

		switch c {
		case ' ', '\t', '\r', '\n':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		case '"':
			quoted = true
			inToken = true
		default:
			current.WriteByte(c)
			inToken = true
		}
	}

	if quoted {
		return nil, errUnbalancedQuotes
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// formatReply renders a Do reply the way redis-cli prints it.
func formatReply(reply any) string {
	switch v := reply.(type) {
	case nil:
		return "(nil)"
	case string:
		return strconv.Quote(v)
	case int64:
		return "(integer) " + strconv.FormatInt(v, 10)
	case []any:
		if len(v) == 0 {
			return "(empty array)"
		}
		var b strings.Builder
		for i, item := range v {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d) %s", i+1, formatReply(item))
		}
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatError(err error) string {
	return "(error) " + err.Error()
}
