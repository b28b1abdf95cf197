// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

import (
	"errors"
	"fmt"
)

// IOError is the recoverable failure returned by I/O operations built on this module.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the [builtin.error] interface.
func (e *IOError) Error() string {
	switch {
	case e.Op == "" && e.Path == "":
		return fmt.Sprintf("i/o failure: %s", e.Err)
	case e.Path == "":
		return fmt.Sprintf("failed to %s: %s", e.Op, e.Err)
	case e.Op == "":
		return fmt.Sprintf("i/o failure on %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Op, e.Path, e.Err)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *IOError) Unwrap() error {
	return e.Err
}

// AsIOError returns err as an [*IOError]. If err already is an [*IOError]
// it's returned as is, otherwise it's wrapped exactly once. A nil err
// results in a nil [*IOError].
func AsIOError(err error) *IOError {
	if err == nil {
		return nil
	}
	if ioErr, ok := err.(*IOError); ok {
		return ioErr
	}
	return &IOError{Err: err}
}

// IsIOError reports whether any error in err's tree is an [*IOError].
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// UncheckedError carries an error across a func signature which has no
// error result. It's only ever used as a panic value.
type UncheckedError struct {
	Err error
}

// Error implements the [builtin.error] interface.
func (e *UncheckedError) Error() string {
	return fmt.Sprintf("unchecked: %s", e.Err)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *UncheckedError) Unwrap() error {
	return e.Err
}

// Uncheck panics with a new [*UncheckedError] wrapping err if err is
// non-nil. [Catch] recovers err exactly as it was passed, even if err is an
// [*UncheckedError] itself.
func Uncheck(err error) {
	if err == nil {
		return
	}
	panic(&UncheckedError{Err: err})
}

// Must returns v if err is nil, otherwise it panics like [Uncheck].
func Must[T any](v T, err error) T {
	Uncheck(err)
	return v
}

// Catch recovers a panicking [*UncheckedError] and stores the error it
// carries in err. It must be deferred directly. Any other panic value
// is re-raised unmodified.
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}

	uerr, ok := r.(*UncheckedError)
	if !ok {
		panic(r)
	}
	*err = uerr.Err
}

// NilArgumentError is the panic value used when a required operation is nil.
type NilArgumentError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e *NilArgumentError) Error() string {
	return fmt.Sprintf("%s must not be nil", e.Name)
}

// RequireNonNil panics with a [*NilArgumentError] for the given argument name if isNil is true.
func RequireNonNil(name string, isNil bool) {
	if isNil {
		panic(&NilArgumentError{Name: name})
	}
}
