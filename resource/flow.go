// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"io"
	"sync"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/internal/try"
)

// Flow is a lazily consumed value which owns the resources it reads from.
// It must be closed once the value is no longer used.
type Flow[V any] struct {
	value V

	closeOnce sync.Once
	hooks     []io.Closer
	release   io.Closer
	err       error
}

// NewFlow returns a [Flow] for v which owns no resources yet.
func NewFlow[V any](v V) *Flow[V] {
	return &Flow[V]{value: v}
}

// Value returns the underlying value.
func (f *Flow[V]) Value() V {
	return f.value
}

// OnClose registers a hook which is run when f is closed. Hooks run in
// the reverse order of their registration and before any resource owned
// by f is closed.
func (f *Flow[V]) OnClose(hook iofn.Runnable) *Flow[V] {
	iofn.RequireNonNil("hook", hook == nil)

	f.hooks = append(f.hooks, try.CloseFunc(hook))
	return f
}

// Close implements the [io.Closer] interface. Hooks are run first,
// followed by closing the value, if it implements [io.Closer], and
// finally the resource f was read from.
// Every closer is called even if a previous one fails. The first failure
// is returned with all later failures suppressed by it.
//
// Only the first call does any work, later calls return the same result.
func (f *Flow[V]) Close() error {
	f.closeOnce.Do(func() {
		for i := len(f.hooks) - 1; i >= 0; i-- {
			try.Close(&f.err, f.hooks[i])
		}
		try.Close(&f.err, f.value)
		try.Close(&f.err, f.release)
	})
	return f.err
}
