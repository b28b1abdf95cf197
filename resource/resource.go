// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"io"
	"log/slog"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/internal/logging"
	"github.com/z5labs/iofn/internal/try"
)

// SuppressedError is a primary failure along with the close
// failures which occurred while releasing the resource.
type SuppressedError = try.SuppressedError

// CloseFunc adapts an ordinary func to the [io.Closer] interface.
type CloseFunc = try.CloseFunc

// Primary returns the primary failure of err. For errors without
// suppressed failures that's err itself.
func Primary(err error) error {
	var serr *SuppressedError
	if errors.As(err, &serr) {
		return serr.Cause
	}
	return err
}

// Suppressed returns the failures suppressed by the primary failure of err.
func Suppressed(err error) []error {
	var serr *SuppressedError
	if errors.As(err, &serr) {
		return serr.Suppressed
	}
	return nil
}

type options struct {
	logHandler slog.Handler
}

// Option configures how resources are released.
type Option func(*options)

// LogHandler configures the slog.Handler used to report close
// failures which get suppressed by a reader failure.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

func newLogger(opts []Option) *slog.Logger {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return logging.New(o.logHandler)
}

// Closer returns a closer for any [io.Closer] resource.
func Closer[R io.Closer]() iofn.Consumer[R] {
	return func(r R) error {
		return r.Close()
	}
}

// ValueOf returns a [iofn.Function] which opens a resource from its source,
// reads a value from it and closes it before returning.
//
// The resource is closed exactly once on every path out of read, including
// a panic. If read fails, a close failure is suppressed by the read failure.
// If read succeeds and close fails, the close failure is returned as is and
// the value is discarded. If open fails, close is never called.
//
// ValueOf panics if open, read or closer is nil.
func ValueOf[S, R, T any](open iofn.Function[S, R], read iofn.Function[R, T], closer iofn.Consumer[R], opts ...Option) iofn.Function[S, T] {
	iofn.RequireNonNil("opener", open == nil)
	iofn.RequireNonNil("reader", read == nil)
	iofn.RequireNonNil("closer", closer == nil)

	log := newLogger(opts)
	return func(src S) (T, error) {
		r, err := open(src)
		if err != nil {
			var zero T
			return zero, err
		}
		return use(log, r, closer, read)
	}
}

// Use reads a value from an already opened resource and closes it with
// the same guarantees as [ValueOf].
func Use[R, T any](r R, closer iofn.Consumer[R], read iofn.Function[R, T], opts ...Option) (T, error) {
	iofn.RequireNonNil("closer", closer == nil)
	iofn.RequireNonNil("reader", read == nil)

	return use(newLogger(opts), r, closer, read)
}

func use[R, T any](log *slog.Logger, r R, closer iofn.Consumer[R], read iofn.Function[R, T]) (t T, err error) {
	defer func() {
		release(log, &err, closer, r)
		if err != nil {
			var zero T
			t = zero
		}
	}()

	return read(r)
}

// FlowOf returns a [iofn.Function] which opens a resource from its source
// and reads a lazily consumed value from it. The returned [Flow] owns the
// resource: closing the [Flow] closes the resource.
//
// If the value implements [io.Closer] it owns the resource instead: closing
// the value must close the resource, and the [Flow] only closes the value.
//
// If read fails or panics the resource is closed immediately and a close
// failure is suppressed by the read failure. If open fails, close is never
// called. The resource is closed at most once, either by FlowOf or by
// the [Flow].
//
// FlowOf panics if open, read or closer is nil.
func FlowOf[S, R, V any](open iofn.Function[S, R], read iofn.Function[R, V], closer iofn.Consumer[R], opts ...Option) iofn.Function[S, *Flow[V]] {
	iofn.RequireNonNil("opener", open == nil)
	iofn.RequireNonNil("reader", read == nil)
	iofn.RequireNonNil("closer", closer == nil)

	log := newLogger(opts)
	return func(src S) (_ *Flow[V], err error) {
		r, err := open(src)
		if err != nil {
			return nil, err
		}

		owned := false
		defer func() {
			if owned {
				return
			}
			release(log, &err, closer, r)
		}()

		v, err := read(r)
		if err != nil {
			return nil, err
		}

		owned = true
		flow := NewFlow(v)
		if _, ok := any(v).(io.Closer); !ok {
			flow.release = CloseFunc(func() error {
				return closer(r)
			})
		}
		return flow, nil
	}
}

func release[R any](log *slog.Logger, err *error, closer iofn.Consumer[R], r R) {
	cerr := closer(r)
	if cerr == nil {
		return
	}
	if *err != nil {
		log.Warn(
			"failed to close resource after a previous failure",
			logging.Error(cerr),
			slog.String("cause", (*err).Error()),
		)
	}
	*err = try.Suppress(*err, cerr)
}
