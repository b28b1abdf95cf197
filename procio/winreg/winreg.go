// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package winreg queries the Windows registry through the reg executable.
//
// The output of "reg query" is parsed by [Keys] and [Parse], which work on
// any OS. Running [Query] requires reg to be on the PATH.
package winreg

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/z5labs/iofn/procio"
	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"
)

// Value types reported by reg.
const (
	TypeNone   = "REG_NONE"
	TypeString = "REG_SZ"
	TypeExpand = "REG_EXPAND_SZ"
	TypeMulti  = "REG_MULTI_SZ"
	TypeDWord  = "REG_DWORD"
	TypeQWord  = "REG_QWORD"
	TypeBinary = "REG_BINARY"
)

// DefaultValue is the name reg prints for the unnamed value of a key.
const DefaultValue = "(Default)"

const (
	keyPrefix = "HKEY_"

	// values are indented and their columns separated by four spaces
	column   = "    "
	multiSep = `\0`
)

// ErrValueNotFound is returned by [QueryValue] if the key has no value
// with the requested name.
var ErrValueNotFound = errors.New("winreg: value not found")

// Key is a registry key along with its values.
type Key struct {
	Path   string
	Values []Value
}

// Value looks up a value of k by its name. Names are case insensitive.
func (k Key) Value(name string) (Value, bool) {
	for _, v := range k.Values {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Value{}, false
}

// Value is a single named registry value as printed by reg.
type Value struct {
	Name string
	Type string
	Data string
}

// TypeError occurs if a [Value] is converted to a type it can't represent.
type TypeError struct {
	Name string
	Type string
	Want string
}

// Error implements the [builtin.error] interface.
func (e TypeError) Error() string {
	return fmt.Sprintf("registry value %s of type %s is not a %s", e.Name, e.Type, e.Want)
}

// Uint64 returns the numeric data of a REG_DWORD or REG_QWORD value.
func (v Value) Uint64() (uint64, error) {
	if v.Type != TypeDWord && v.Type != TypeQWord {
		return 0, TypeError{Name: v.Name, Type: v.Type, Want: "number"}
	}
	return strconv.ParseUint(strings.TrimPrefix(v.Data, "0x"), 16, 64)
}

// Strings returns the strings of a REG_MULTI_SZ value.
func (v Value) Strings() ([]string, error) {
	if v.Type != TypeMulti {
		return nil, TypeError{Name: v.Name, Type: v.Type, Want: "string list"}
	}
	if v.Data == "" {
		return nil, nil
	}
	return strings.Split(v.Data, multiSep), nil
}

// Bytes returns the data of a REG_BINARY value.
func (v Value) Bytes() ([]byte, error) {
	if v.Type != TypeBinary {
		return nil, TypeError{Name: v.Name, Type: v.Type, Want: "binary"}
	}
	return hex.DecodeString(v.Data)
}

// SyntaxError occurs if a line of reg output can't be parsed.
type SyntaxError struct {
	Line string
}

// Error implements the [builtin.error] interface.
func (e SyntaxError) Error() string {
	return fmt.Sprintf("failed to parse reg output line: %q", e.Line)
}

func parseValue(line string) (Value, error) {
	fields := strings.SplitN(strings.TrimPrefix(line, column), column, 3)
	if len(fields) < 2 {
		return Value{}, SyntaxError{Line: line}
	}

	v := Value{
		Name: fields[0],
		Type: fields[1],
	}
	if len(fields) == 3 {
		v.Data = fields[2]
	}
	if !strings.HasPrefix(v.Type, "REG_") {
		return Value{}, SyntaxError{Line: line}
	}
	return v, nil
}

// Keys returns the keys printed by "reg query" in the order they appear.
func Keys(r io.Reader) seq.Iterator[Key] {
	lines := textio.ScanLines(r)

	var pending *Key
	return seq.FromFunc(func() (Key, bool, error) {
		for {
			ok, err := lines.HasNext()
			if err != nil {
				return Key{}, false, err
			}
			if !ok {
				break
			}

			line, err := lines.Next()
			if err != nil {
				return Key{}, false, err
			}
			line = strings.TrimRight(line, "\r")

			switch {
			case strings.HasPrefix(line, keyPrefix):
				next := &Key{Path: line}
				if pending != nil {
					k := *pending
					pending = next
					return k, true, nil
				}
				pending = next
			case strings.HasPrefix(line, column):
				if pending == nil {
					return Key{}, false, SyntaxError{Line: line}
				}
				v, err := parseValue(line)
				if err != nil {
					return Key{}, false, err
				}
				pending.Values = append(pending.Values, v)
			}
		}

		if pending == nil {
			return Key{}, false, nil
		}
		k := *pending
		pending = nil
		return k, true, nil
	})
}

// Parse parses every key printed by "reg query".
func Parse(r io.Reader) ([]Key, error) {
	return seq.Collect(Keys(r))
}

// Runner runs a reg command and parses its output.
type Runner func(context.Context, procio.Command, textio.Parser[[]Key]) ([]Key, error)

type options struct {
	recursive bool
	runner    Runner
	procOpts  []procio.Option
}

// Option configures a query.
type Option func(*options)

// Recursive queries all subkeys too.
func Recursive() Option {
	return func(o *options) {
		o.recursive = true
	}
}

// WithRunner replaces how the reg command is run.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// ProcessOptions are passed on to the [procio] package when reg is run.
func ProcessOptions(opts ...procio.Option) Option {
	return func(o *options) {
		o.procOpts = append(o.procOpts, opts...)
	}
}

func query(ctx context.Context, args []string, opts []Option) ([]Key, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.recursive {
		args = append(args, "/s")
	}

	run := o.runner
	if run == nil {
		run = func(ctx context.Context, c procio.Command, p textio.Parser[[]Key]) ([]Key, error) {
			return procio.Parse(ctx, c, p, o.procOpts...)
		}
	}

	c := procio.Command{
		Name: "reg",
		Args: append([]string{"query"}, args...),
	}
	return run(ctx, c, textio.ParserFunc[[]Key](Parse))
}

// Query returns the key at path along with its values.
func Query(ctx context.Context, path string, opts ...Option) ([]Key, error) {
	return query(ctx, []string{path}, opts)
}

// QueryValue returns a single named value of the key at path. An empty
// name queries the default value of the key.
func QueryValue(ctx context.Context, path, name string, opts ...Option) (Value, error) {
	args := []string{path, "/ve"}
	if name != "" {
		args = []string{path, "/v", name}
	}

	keys, err := query(ctx, args, opts)
	if err != nil {
		return Value{}, err
	}
	for _, k := range keys {
		if name == "" && len(k.Values) > 0 {
			return k.Values[0], nil
		}
		v, ok := k.Value(name)
		if ok {
			return v, nil
		}
	}
	return Value{}, ErrValueNotFound
}
