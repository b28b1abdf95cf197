// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/z5labs/iofn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errOpen  = errors.New("open error")
	errRead  = errors.New("read error")
	errClose = errors.New("close error")
)

type handle struct {
	name   string
	closed int
}

type harness struct {
	opened   []*handle
	closeErr error
}

func (h *harness) open(name string) (*handle, error) {
	r := &handle{name: name}
	h.opened = append(h.opened, r)
	return r, nil
}

func (h *harness) close(r *handle) error {
	r.closed++
	return h.closeErr
}

func (h *harness) closeCount() int {
	n := 0
	for _, r := range h.opened {
		n += r.closed
	}
	return n
}

func TestValueOf(t *testing.T) {
	t.Run("will return the read value", func(t *testing.T) {
		t.Run("if open, read and close all succeed", func(t *testing.T) {
			h := &harness{}
			f := ValueOf(h.open, func(r *handle) (string, error) {
				if !assert.Equal(t, 0, r.closed) {
					return "", nil
				}
				return "hello " + r.name, nil
			}, h.close)

			v, err := f("world")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", v) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will return the open error", func(t *testing.T) {
		t.Run("if open fails and never call close", func(t *testing.T) {
			h := &harness{}
			readCalled := false
			f := ValueOf(
				iofn.Function[string, *handle](func(string) (*handle, error) { return nil, errOpen }),
				func(*handle) (string, error) {
					readCalled = true
					return "", nil
				},
				h.close,
			)

			_, err := f("a")
			if !assert.Equal(t, errOpen, err) {
				return
			}
			if !assert.Empty(t, Suppressed(err)) {
				return
			}
			if !assert.False(t, readCalled) {
				return
			}
			if !assert.Equal(t, 0, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will return the read error", func(t *testing.T) {
		t.Run("if read fails and close succeeds", func(t *testing.T) {
			h := &harness{}
			f := ValueOf(h.open, func(*handle) (string, error) {
				return "partial", errRead
			}, h.close)

			v, err := f("a")
			if !assert.Equal(t, errRead, err) {
				return
			}
			if !assert.Empty(t, v) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})

		t.Run("with the close error suppressed if both read and close fail", func(t *testing.T) {
			h := &harness{closeErr: errClose}
			f := ValueOf(h.open, func(*handle) (string, error) {
				return "", errRead
			}, h.close)

			_, err := f("a")
			if !assert.Equal(t, errRead, Primary(err)) {
				return
			}
			if !assert.Equal(t, []error{errClose}, Suppressed(err)) {
				return
			}
			if !assert.ErrorIs(t, err, errRead) {
				return
			}
			if !assert.ErrorIs(t, err, errClose) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will return exactly the close error", func(t *testing.T) {
		t.Run("if read succeeds and close fails", func(t *testing.T) {
			h := &harness{closeErr: errClose}
			f := ValueOf(h.open, func(*handle) (string, error) {
				return "value", nil
			}, h.close)

			v, err := f("a")
			if !assert.Equal(t, errClose, err) {
				return
			}
			if !assert.Empty(t, v) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will close the resource", func(t *testing.T) {
		t.Run("if read panics", func(t *testing.T) {
			h := &harness{}
			f := ValueOf(h.open, func(*handle) (string, error) {
				panic("boom")
			}, h.close)

			if !assert.PanicsWithValue(t, "boom", func() { _, _ = f("a") }) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will log the suppressed close error", func(t *testing.T) {
		t.Run("if a log handler is configured", func(t *testing.T) {
			var buf bytes.Buffer
			h := &harness{closeErr: errClose}
			f := ValueOf(
				h.open,
				func(*handle) (string, error) { return "", errRead },
				h.close,
				LogHandler(slog.NewTextHandler(&buf, nil)),
			)

			_, err := f("a")
			if !assert.Error(t, err) {
				return
			}
			if !assert.Contains(t, buf.String(), "close error") {
				return
			}
		})
	})

	t.Run("will panic with a *iofn.NilArgumentError", func(t *testing.T) {
		h := &harness{}
		read := func(*handle) (string, error) { return "", nil }

		testCases := []struct {
			name string
			f    func()
		}{
			{name: "if the opener is nil", f: func() { ValueOf[string](nil, read, h.close) }},
			{name: "if the reader is nil", f: func() { ValueOf[string, *handle, string](h.open, nil, h.close) }},
			{name: "if the closer is nil", f: func() { ValueOf(h.open, read, nil) }},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				defer func() {
					_, ok := recover().(*iofn.NilArgumentError)
					require.True(t, ok)
					require.Empty(t, h.opened)
				}()

				tc.f()
			})
		}
	})
}

func TestUse(t *testing.T) {
	t.Run("will close the already opened resource", func(t *testing.T) {
		h := &harness{}
		r, _ := h.open("a")

		n, err := Use(r, h.close, func(r *handle) (int, error) {
			return len(r.name), nil
		})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 1, n) {
			return
		}
		if !assert.Equal(t, 1, r.closed) {
			return
		}
	})
}

func TestFlowOf(t *testing.T) {
	t.Run("will not close the resource", func(t *testing.T) {
		t.Run("until the returned flow is closed", func(t *testing.T) {
			h := &harness{}
			f := FlowOf(h.open, func(r *handle) (string, error) {
				return r.name, nil
			}, h.close)

			flow, err := f("a")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "a", flow.Value()) {
				return
			}
			if !assert.Equal(t, 0, h.closeCount()) {
				return
			}

			err = flow.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}

			err = flow.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will return the open error", func(t *testing.T) {
		t.Run("if open fails and never call close", func(t *testing.T) {
			h := &harness{}
			f := FlowOf(
				iofn.Function[string, *handle](func(string) (*handle, error) { return nil, errOpen }),
				func(*handle) (string, error) { return "", nil },
				h.close,
			)

			flow, err := f("a")
			if !assert.Equal(t, errOpen, err) {
				return
			}
			if !assert.Nil(t, flow) {
				return
			}
			if !assert.Empty(t, Suppressed(err)) {
				return
			}
			if !assert.Equal(t, 0, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will close the resource immediately", func(t *testing.T) {
		t.Run("if read fails", func(t *testing.T) {
			h := &harness{}
			f := FlowOf(h.open, func(*handle) (string, error) {
				return "", errRead
			}, h.close)

			flow, err := f("a")
			if !assert.Equal(t, errRead, err) {
				return
			}
			if !assert.Nil(t, flow) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})

		t.Run("and suppress the close error if both read and close fail", func(t *testing.T) {
			h := &harness{closeErr: errClose}
			f := FlowOf(h.open, func(*handle) (string, error) {
				return "", errRead
			}, h.close)

			_, err := f("a")
			if !assert.Equal(t, errRead, Primary(err)) {
				return
			}
			if !assert.Equal(t, []error{errClose}, Suppressed(err)) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})

		t.Run("if read panics", func(t *testing.T) {
			h := &harness{}
			f := FlowOf(h.open, func(*handle) (string, error) {
				panic("boom")
			}, h.close)

			if !assert.PanicsWithValue(t, "boom", func() { _, _ = f("a") }) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will close the resource once", func(t *testing.T) {
		t.Run("if the value closes it", func(t *testing.T) {
			h := &harness{}
			f := FlowOf(h.open, func(r *handle) (closingHandle, error) {
				return closingHandle{handle: r, h: h}, nil
			}, h.close)

			flow, err := f("a")
			if !assert.Nil(t, err) {
				return
			}

			err = flow.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}

			err = flow.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})

	t.Run("will return the close error from the flow", func(t *testing.T) {
		t.Run("if closing the resource fails", func(t *testing.T) {
			h := &harness{closeErr: errClose}
			f := FlowOf(h.open, func(r *handle) (string, error) {
				return r.name, nil
			}, h.close)

			flow, err := f("a")
			if !assert.Nil(t, err) {
				return
			}

			err = flow.Close()
			if !assert.Equal(t, errClose, err) {
				return
			}
			if !assert.Equal(t, 1, h.closeCount()) {
				return
			}
		})
	})
}

type closingHandle struct {
	*handle
	h *harness
}

func (c closingHandle) Close() error {
	return c.h.close(c.handle)
}

type closeRecorder struct {
	name  string
	calls *[]string
	err   error
}

func (c closeRecorder) Close() error {
	*c.calls = append(*c.calls, c.name)
	return c.err
}

func TestFlow_Close(t *testing.T) {
	t.Run("will run hooks in reverse order, then close the resource", func(t *testing.T) {
		var calls []string
		f := FlowOf(
			iofn.Function[string, closeRecorder](func(name string) (closeRecorder, error) {
				return closeRecorder{name: name, calls: &calls}, nil
			}),
			func(r closeRecorder) (string, error) {
				return r.name, nil
			},
			Closer[closeRecorder](),
		)

		flow, err := f("resource")
		if !assert.Nil(t, err) {
			return
		}
		flow.OnClose(func() error {
			calls = append(calls, "first hook")
			return nil
		}).OnClose(func() error {
			calls = append(calls, "second hook")
			return nil
		})

		err = flow.Close()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, []string{"second hook", "first hook", "resource"}, calls) {
			return
		}
	})

	t.Run("will close the value instead of the resource", func(t *testing.T) {
		t.Run("if the value is an io.Closer", func(t *testing.T) {
			var calls []string
			f := FlowOf(
				iofn.Function[string, closeRecorder](func(name string) (closeRecorder, error) {
					return closeRecorder{name: name, calls: &calls}, nil
				}),
				func(r closeRecorder) (closeRecorder, error) {
					return closeRecorder{name: "value", calls: r.calls}, nil
				},
				Closer[closeRecorder](),
			)

			flow, err := f("resource")
			if !assert.Nil(t, err) {
				return
			}
			flow.OnClose(func() error {
				calls = append(calls, "hook")
				return nil
			})

			err = flow.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"hook", "value"}, calls) {
				return
			}
		})
	})

	t.Run("will run every closer and suppress later failures", func(t *testing.T) {
		var calls []string
		hookErr := errors.New("hook error")
		flow := NewFlow(closeRecorder{name: "value", calls: &calls, err: errRead}).
			OnClose(func() error {
				calls = append(calls, "hook")
				return hookErr
			})

		err := flow.Close()
		if !assert.Equal(t, hookErr, Primary(err)) {
			return
		}
		if !assert.Equal(t, []error{errRead}, Suppressed(err)) {
			return
		}
		if !assert.Equal(t, []string{"hook", "value"}, calls) {
			return
		}
	})
}
