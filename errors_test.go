// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsIOError(t *testing.T) {
	t.Run("will return the same error", func(t *testing.T) {
		t.Run("if the error already is an *IOError", func(t *testing.T) {
			ioErr := &IOError{Op: "read", Path: "a.txt", Err: fs.ErrNotExist}

			got := AsIOError(ioErr)
			if !assert.Same(t, ioErr, got) {
				return
			}
		})
	})

	t.Run("will wrap the error once", func(t *testing.T) {
		t.Run("if the error is not an *IOError", func(t *testing.T) {
			cause := errors.New("boom")

			got := AsIOError(cause)
			if !assert.Equal(t, cause, got.Err) {
				return
			}
			if !assert.Same(t, got, AsIOError(got)) {
				return
			}
		})
	})

	t.Run("will return nil", func(t *testing.T) {
		t.Run("if the error is nil", func(t *testing.T) {
			if !assert.Nil(t, AsIOError(nil)) {
				return
			}
		})
	})
}

func TestIOError_Error(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name     string
		err      *IOError
		expected string
	}{
		{
			name:     "cause only",
			err:      &IOError{Err: cause},
			expected: "i/o failure: boom",
		},
		{
			name:     "op only",
			err:      &IOError{Op: "read", Err: cause},
			expected: "failed to read: boom",
		},
		{
			name:     "path only",
			err:      &IOError{Path: "a.txt", Err: cause},
			expected: "i/o failure on a.txt: boom",
		},
		{
			name:     "op and path",
			err:      &IOError{Op: "read", Path: "a.txt", Err: cause},
			expected: "failed to read a.txt: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.err.Error())
			require.ErrorIs(t, tc.err, cause)
			require.True(t, IsIOError(tc.err))
		})
	}
}

func TestCatch(t *testing.T) {
	t.Run("will set the error ref value", func(t *testing.T) {
		t.Run("if an *UncheckedError is recovered", func(t *testing.T) {
			cause := errors.New("boom")
			f := func() (err error) {
				defer Catch(&err)
				Uncheck(cause)
				return nil
			}

			err := f()
			if !assert.Equal(t, cause, err) {
				return
			}
		})

		t.Run("to the exact error if Uncheck is called with an *UncheckedError", func(t *testing.T) {
			cause := &UncheckedError{Err: errors.New("boom")}
			f := func() (err error) {
				defer Catch(&err)
				Uncheck(cause)
				return nil
			}

			err := f()
			if !assert.Same(t, cause, err) {
				return
			}
		})

		t.Run("to the exact error if Must is called with an *UncheckedError", func(t *testing.T) {
			cause := &UncheckedError{Err: errors.New("boom")}
			f := func() (err error) {
				defer Catch(&err)
				Must(0, error(cause))
				return nil
			}

			err := f()
			if !assert.Same(t, cause, err) {
				return
			}
		})
	})

	t.Run("will re-panic", func(t *testing.T) {
		t.Run("if the panic value is not an *UncheckedError", func(t *testing.T) {
			f := func() (err error) {
				defer Catch(&err)
				panic("hello world")
			}

			if !assert.PanicsWithValue(t, "hello world", func() { _ = f() }) {
				return
			}
		})
	})

	t.Run("will not set the error ref value", func(t *testing.T) {
		t.Run("if no panic occurs", func(t *testing.T) {
			f := func() (err error) {
				defer Catch(&err)
				Uncheck(nil)
				return nil
			}

			if !assert.Nil(t, f()) {
				return
			}
		})
	})
}

func TestRequireNonNil(t *testing.T) {
	t.Run("will panic with a *NilArgumentError", func(t *testing.T) {
		t.Run("if the argument is nil", func(t *testing.T) {
			defer func() {
				r := recover()
				nerr, ok := r.(*NilArgumentError)
				if !assert.True(t, ok) {
					return
				}
				if !assert.Equal(t, "opener must not be nil", nerr.Error()) {
					return
				}
				if !assert.False(t, IsIOError(nerr)) {
					return
				}
			}()

			RequireNonNil("opener", true)
		})
	})
}
