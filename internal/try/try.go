// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package try provides deferrable helpers for cleanup and panic recovery.
package try

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// PanicError is returned by [Recover] for a recovered panic value.
type PanicError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover converts a panic into a [PanicError] and stores it in err.
// If err already holds an error the two are joined.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	perr := PanicError{
		Value: r,
	}
	if *err == nil {
		*err = perr
		return
	}
	*err = errors.Join(*err, perr)
}

// SuppressedError is a primary failure with one or more secondary failures
// which occurred while cleaning up after it.
type SuppressedError struct {
	Cause      error
	Suppressed []error
}

// Error implements the [builtin.error] interface.
func (e *SuppressedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Cause.Error())
	for _, err := range e.Suppressed {
		sb.WriteString(" (suppressed: ")
		sb.WriteString(err.Error())
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
// The primary failure always comes first.
func (e *SuppressedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Suppressed)+1)
	errs = append(errs, e.Cause)
	return append(errs, e.Suppressed...)
}

// Suppress attaches secondary to primary. If either is nil the
// other is returned unchanged.
func Suppress(primary, secondary error) error {
	if secondary == nil {
		return primary
	}
	if primary == nil {
		return secondary
	}

	if serr, ok := primary.(*SuppressedError); ok {
		suppressed := make([]error, 0, len(serr.Suppressed)+1)
		suppressed = append(suppressed, serr.Suppressed...)
		return &SuppressedError{
			Cause:      serr.Cause,
			Suppressed: append(suppressed, secondary),
		}
	}
	return &SuppressedError{
		Cause:      primary,
		Suppressed: []error{secondary},
	}
}

// Close closes v if it implements [io.Closer]. A close failure becomes the
// value of err if err is nil, otherwise it's suppressed by the existing error.
func Close(err *error, v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}

	*err = Suppress(*err, c.Close())
}

// CloseFunc adapts an ordinary func to the [io.Closer] interface.
type CloseFunc func() error

// Close implements the [io.Closer] interface.
func (f CloseFunc) Close() error {
	return f()
}
