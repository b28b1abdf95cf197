// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package procio reads the standard output of external processes.
//
// A process is a resource like any other: it's opened by starting it and
// closed by waiting for it to exit. [Parse] and [Output] read everything a
// process writes before waiting for it, while [Lines] hands the open process
// to the caller as a closable sequence of lines.
//
// The standard error of every process is drained concurrently and reported
// as part of an [ExitError] if the process exits unsuccessfully.
package procio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/internal/logging"
	"github.com/z5labs/iofn/internal/try"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

const tracerName = "github.com/z5labs/iofn/procio"

// ErrEmptyCommand is returned if a [Command] has no name.
var ErrEmptyCommand = errors.New("procio: command name must not be empty")

// Command describes an external process.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory of the process. If empty the
	// process runs in the current directory.
	Dir string

	// Env is added to the environment of the current process.
	Env []string

	Stdin io.Reader
}

// String returns the command line of c.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ExitError occurs if a process doesn't exit successfully.
type ExitError struct {
	Command string
	Stderr  string
	Err     error
}

// Error implements the [builtin.error] interface.
func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("failed to run %s: %s", e.Command, e.Err)
	}
	return fmt.Sprintf("failed to run %s: %s: %s", e.Command, e.Err, stderr)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the process or -1 if it's unknown.
func (e *ExitError) ExitCode() int {
	var eerr *exec.ExitError
	if errors.As(e.Err, &eerr) {
		return eerr.ExitCode()
	}
	return -1
}

type options struct {
	charset    string
	waitDelay  time.Duration
	logHandler slog.Handler
}

// Option configures how processes are run.
type Option func(*options)

// Charset sets the charset the standard output is decoded from.
func Charset(name string) Option {
	return func(o *options) {
		o.charset = name
	}
}

// WaitDelay bounds how long closing a process waits for its standard
// error to be closed once it has exited. Processes started by the process
// may keep it open for longer.
func WaitDelay(d time.Duration) Option {
	return func(o *options) {
		o.waitDelay = d
	}
}

// LogHandler configures the slog.Handler used for logging.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		waitDelay:  5 * time.Second,
		logHandler: logging.NoopHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type process struct {
	name      string
	log       *slog.Logger
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	waitDelay time.Duration

	closeStderr func()
	stderr      bytes.Buffer
	drain       errgroup.Group

	eof bool
}

// Read implements the [io.Reader] interface over the standard output.
func (p *process) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err == io.EOF {
		p.eof = true
	}
	return n, err
}

// Close implements the [io.Closer] interface. A process whose output
// wasn't read until the end is killed since nobody is going to read it.
func (p *process) Close() error {
	killed := false
	if !p.eof {
		err := p.cmd.Process.Kill()
		killed = err == nil
	}

	waitErr := p.cmd.Wait()

	delay := p.waitDelay
	if killed {
		delay = 0
	}
	timer := time.AfterFunc(delay, p.closeStderr)
	drainErr := p.drain.Wait()
	timer.Stop()
	p.closeStderr()

	if killed {
		p.log.Debug("killed process", logging.String("command", p.name))
		return drainErr
	}
	if waitErr != nil {
		return &ExitError{
			Command: p.name,
			Stderr:  p.stderr.String(),
			Err:     errors.Join(waitErr, drainErr),
		}
	}

	p.log.Debug("process exited", logging.String("command", p.name))
	return drainErr
}

func start(ctx context.Context, o *options, log *slog.Logger) iofn.Function[Command, *process] {
	return func(c Command) (*process, error) {
		if c.Name == "" {
			return nil, ErrEmptyCommand
		}

		cmd := exec.CommandContext(ctx, c.Name, c.Args...)
		cmd.Dir = c.Dir
		cmd.Stdin = c.Stdin
		if len(c.Env) > 0 {
			cmd.Env = append(os.Environ(), c.Env...)
		}

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}

		// descendants of the process may hold the write end open past Wait
		stderrPipe, stderrW, err := os.Pipe()
		if err != nil {
			return nil, try.Suppress(err, stdout.Close())
		}
		cmd.Stderr = stderrW

		err = cmd.Start()
		try.Close(&err, stderrW)
		if err != nil {
			return nil, try.Suppress(err, stderrPipe.Close())
		}

		var once sync.Once
		p := &process{
			name:      c.String(),
			log:       log,
			cmd:       cmd,
			stdout:    stdout,
			waitDelay: o.waitDelay,
			closeStderr: func() {
				once.Do(func() { stderrPipe.Close() })
			},
		}
		p.drain.Go(func() error {
			_, err := io.Copy(&p.stderr, stderrPipe)
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		})

		log.DebugContext(
			ctx,
			"started process",
			logging.String("command", p.name),
			logging.Int("pid", cmd.Process.Pid),
		)
		return p, nil
	}
}

func startSpan(ctx context.Context, name string, c Command) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(
		ctx,
		name,
		trace.WithAttributes(
			attribute.String("process.command", c.Name),
			attribute.StringSlice("process.command_args", c.Args),
		),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func decoder(o *options) (encoding.Encoding, error) {
	return textio.LookupCharset(o.charset)
}

// Parse runs c and parses its standard output. Any output left over by
// the parser is discarded. Parse returns once the process has exited.
func Parse[T any](ctx context.Context, c Command, parser textio.Parser[T], opts ...Option) (T, error) {
	o := newOptions(opts)
	ctx, span := startSpan(ctx, "procio.Parse", c)
	defer span.End()

	var zero T
	enc, err := decoder(o)
	if err != nil {
		recordError(span, err)
		return zero, err
	}

	log := logging.New(o.logHandler)
	run := resource.ValueOf(
		start(ctx, o, log),
		func(p *process) (T, error) {
			t, err := parser.Parse(textio.Decode(p, enc))
			if err != nil {
				return t, err
			}
			_, err = io.Copy(io.Discard, p)
			return t, err
		},
		resource.Closer[*process](),
		resource.LogHandler(o.logHandler),
	)

	t, err := run(c)
	if err != nil {
		recordError(span, err)
		return zero, &iofn.IOError{Op: "exec", Path: c.Name, Err: err}
	}
	return t, nil
}

// Output runs c and returns its standard output.
func Output(ctx context.Context, c Command, opts ...Option) ([]byte, error) {
	return Parse(ctx, c, textio.Bytes(), opts...)
}

// Lines starts c and returns the lines of its standard output. Closing the
// returned sequence waits for the process to exit, killing it first if
// its output wasn't read until the end.
func Lines(ctx context.Context, c Command, opts ...Option) (seq.ClosableIterator[string], error) {
	o := newOptions(opts)
	ctx, span := startSpan(ctx, "procio.Lines", c)
	defer span.End()

	enc, err := decoder(o)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	log := logging.New(o.logHandler)
	open := resource.FlowOf(
		start(ctx, o, log),
		func(p *process) (seq.Iterator[string], error) {
			return textio.ScanLines(textio.Decode(p, enc)), nil
		},
		resource.Closer[*process](),
		resource.LogHandler(o.logHandler),
	)

	flow, err := open(c)
	if err != nil {
		recordError(span, err)
		return nil, &iofn.IOError{Op: "exec", Path: c.Name, Err: err}
	}
	return seq.Closeable(flow), nil
}
