// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package textio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/internal/logging"
	"github.com/z5labs/iofn/internal/try"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"

	"github.com/gofrs/flock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding"
)

const tracerName = "github.com/z5labs/iofn/textio"

// LockSuffix is appended to a file path to name its lock file.
const LockSuffix = ".lock"

type options struct {
	charset    string
	lock       bool
	lockRetry  time.Duration
	appendOnly bool
	perm       fs.FileMode
	logHandler slog.Handler
}

// Option configures how files are read and written.
type Option func(*options)

// Charset sets the charset files are decoded from and encoded to.
// By default bytes are passed through as is.
func Charset(name string) Option {
	return func(o *options) {
		o.charset = name
	}
}

// Lock enables advisory locking through a lock file next to the target
// file. Readers share the lock while writers hold it exclusively.
func Lock() Option {
	return func(o *options) {
		o.lock = true
	}
}

// LockRetryDelay sets how long to wait between attempts to acquire a lock.
func LockRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.lockRetry = d
	}
}

// Append makes [FormatFile] append to the file instead of truncating it.
func Append() Option {
	return func(o *options) {
		o.appendOnly = true
	}
}

// Perm sets the permissions of files created by [FormatFile].
func Perm(m fs.FileMode) Option {
	return func(o *options) {
		o.perm = m
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
		lockRetry:  50 * time.Millisecond,
		perm:       0o644,
		logHandler: logging.NoopHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LockError occurs if a file lock can't be acquired.
type LockError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e LockError) Error() string {
	return fmt.Sprintf("failed to lock %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e LockError) Unwrap() error {
	return e.Cause
}

type file struct {
	*os.File
	lock *flock.Flock
}

// Close implements the [io.Closer] interface. The lock is always
// released, even if closing the file fails.
func (f *file) Close() (err error) {
	if f.lock != nil {
		defer try.Close(&err, try.CloseFunc(f.lock.Unlock))
	}
	return f.File.Close()
}

func acquire(ctx context.Context, o *options, path string, exclusive bool) (*flock.Flock, error) {
	if !o.lock {
		return nil, nil
	}

	fl := flock.New(path + LockSuffix)
	tryLock := fl.TryRLockContext
	if exclusive {
		tryLock = fl.TryLockContext
	}

	ok, err := tryLock(ctx, o.lockRetry)
	if err != nil {
		return nil, LockError{Path: path, Cause: err}
	}
	if !ok {
		return nil, LockError{Path: path, Cause: context.Cause(ctx)}
	}
	return fl, nil
}

func openReader(ctx context.Context, o *options) iofn.Function[string, *file] {
	return func(path string) (*file, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		lock, err := acquire(ctx, o, path, false)
		if err != nil {
			return nil, try.Suppress(err, f.Close())
		}
		return &file{File: f, lock: lock}, nil
	}
}

func openWriter(ctx context.Context, o *options) iofn.Function[string, *file] {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if o.appendOnly {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	return func(path string) (*file, error) {
		lock, err := acquire(ctx, o, path, true)
		if err != nil {
			return nil, err
		}

		f, err := os.OpenFile(path, flag, o.perm)
		if err != nil {
			if lock != nil {
				return nil, try.Suppress(err, lock.Unlock())
			}
			return nil, err
		}
		return &file{File: f, lock: lock}, nil
	}
}

func startSpan(ctx context.Context, name, path string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(
		ctx,
		name,
		trace.WithAttributes(attribute.String("file.path", path)),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// ParseFile parses a value from the file at path. The file is closed,
// and unlocked, before ParseFile returns.
func ParseFile[T any](ctx context.Context, path string, p Parser[T], opts ...Option) (T, error) {
	o := newOptions(opts)
	ctx, span := startSpan(ctx, "textio.ParseFile", path)
	defer span.End()

	var zero T
	enc, err := LookupCharset(o.charset)
	if err != nil {
		recordError(span, err)
		return zero, err
	}

	parse := resource.ValueOf(
		openReader(ctx, o),
		func(f *file) (T, error) {
			return p.Parse(Decode(f, enc))
		},
		resource.Closer[*file](),
		resource.LogHandler(o.logHandler),
	)

	t, err := parse(path)
	if err != nil {
		recordError(span, err)
		return zero, &iofn.IOError{Op: "parse", Path: path, Err: err}
	}

	logging.New(o.logHandler).DebugContext(ctx, "parsed file", logging.Path(path))
	return t, nil
}

// FormatFile formats t into the file at path, creating it if needed.
// The written bytes are synced to disk before the file is closed.
func FormatFile[T any](ctx context.Context, path string, f Formatter[T], t T, opts ...Option) error {
	o := newOptions(opts)
	ctx, span := startSpan(ctx, "textio.FormatFile", path)
	defer span.End()

	enc, err := LookupCharset(o.charset)
	if err != nil {
		recordError(span, err)
		return err
	}

	format := resource.ValueOf(
		openWriter(ctx, o),
		func(fh *file) (struct{}, error) {
			return struct{}{}, writeTo(fh, enc, f, t)
		},
		resource.Closer[*file](),
		resource.LogHandler(o.logHandler),
	)

	_, err = format(path)
	if err != nil {
		recordError(span, err)
		return &iofn.IOError{Op: "format", Path: path, Err: err}
	}

	logging.New(o.logHandler).DebugContext(ctx, "formatted file", logging.Path(path))
	return nil
}

func writeTo[T any](fh *file, enc encoding.Encoding, f Formatter[T], t T) error {
	ew := Encode(fh, enc)
	bw := bufio.NewWriter(ew)

	err := f.Format(bw, t)
	if err != nil {
		return err
	}
	err = bw.Flush()
	if err != nil {
		return err
	}
	err = ew.Close()
	if err != nil {
		return err
	}
	return fh.Sync()
}

// Stream opens the file at path and returns the [seq.Iterator] created by
// read from its decoded contents. The file stays open, and locked, until
// the returned iterator is closed. An iterator created by read which is an
// [io.Closer] is closed before the file.
func Stream[T any](ctx context.Context, path string, read iofn.Function[io.Reader, seq.Iterator[T]], opts ...Option) (seq.ClosableIterator[T], error) {
	iofn.RequireNonNil("reader", read == nil)

	o := newOptions(opts)
	ctx, span := startSpan(ctx, "textio.Stream", path)
	defer span.End()

	enc, err := LookupCharset(o.charset)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	open := resource.FlowOf(
		openReader(ctx, o),
		func(f *file) (seq.Iterator[T], error) {
			it, err := read(Decode(f, enc))
			if err != nil {
				return nil, err
			}
			c, ok := it.(io.Closer)
			if !ok {
				return it, nil
			}
			return seq.WithCloser(it, resource.CloseFunc(func() (err error) {
				defer try.Close(&err, f)
				return c.Close()
			})), nil
		},
		resource.Closer[*file](),
		resource.LogHandler(o.logHandler),
	)

	flow, err := open(path)
	if err != nil {
		recordError(span, err)
		return nil, &iofn.IOError{Op: "open", Path: path, Err: err}
	}
	return seq.Closeable(flow), nil
}

// Lines returns the lines of the file at path, see [Stream].
func Lines(ctx context.Context, path string, opts ...Option) (seq.ClosableIterator[string], error) {
	return Stream(ctx, path, func(r io.Reader) (seq.Iterator[string], error) {
		return ScanLines(r), nil
	}, opts...)
}
