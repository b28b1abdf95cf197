// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package seq

import (
	"errors"
	"io"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/resource"
)

// ErrEmptySequence is returned by Next when there are no more elements.
var ErrEmptySequence = errors.New("seq: no more elements")

// Iterator is a pull based iterator over elements of type T.
type Iterator[T any] interface {
	// HasNext reports whether there is another element. Calling it
	// repeatedly without calling Next returns the same result.
	HasNext() (bool, error)

	// Next returns the next element or [ErrEmptySequence].
	Next() (T, error)
}

// ClosableIterator is an [Iterator] which owns resources that
// must be released once iteration stops.
type ClosableIterator[T any] interface {
	Iterator[T]
	io.Closer
}

type state int

const (
	notComputed state = iota
	computed
	done
)

// Cursor is an [Iterator] over the elements produced by an advance func.
type Cursor[T any] struct {
	advance func() (T, bool, error)

	state state
	next  T
}

// FromFunc returns a [Cursor] which calls advance to look ahead for the
// next element. advance returns false once the source is exhausted and is
// never called again after that.
func FromFunc[T any](advance func() (T, bool, error)) *Cursor[T] {
	iofn.RequireNonNil("advance", advance == nil)

	return &Cursor[T]{advance: advance}
}

// HasNext implements the [Iterator] interface. If advancing fails the
// cursor stays as it was and the error is returned.
func (c *Cursor[T]) HasNext() (bool, error) {
	switch c.state {
	case computed:
		return true, nil
	case done:
		return false, nil
	}

	v, ok, err := c.advance()
	if err != nil {
		return false, err
	}
	if !ok {
		c.state = done
		return false, nil
	}
	c.next = v
	c.state = computed
	return true, nil
}

// Next implements the [Iterator] interface.
func (c *Cursor[T]) Next() (T, error) {
	var zero T
	ok, err := c.HasNext()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrEmptySequence
	}

	v := c.next
	c.next = zero
	c.state = notComputed
	return v, nil
}

// Empty returns an [Iterator] without any elements.
func Empty[T any]() Iterator[T] {
	return FromFunc(func() (t T, ok bool, err error) {
		return t, false, nil
	})
}

// Singleton returns an [Iterator] with v as its only element.
func Singleton[T any](v T) Iterator[T] {
	return FromSlice([]T{v})
}

// FromSlice returns an [Iterator] over the elements of s.
func FromSlice[T any](s []T) Iterator[T] {
	i := 0
	return FromFunc(func() (t T, ok bool, err error) {
		if i >= len(s) {
			return t, false, nil
		}
		t = s[i]
		i++
		return t, true, nil
	})
}

// Iterate returns an [Iterator] which starts at seed and applies next to
// the previous element for as long as hasNext holds.
//
//	// 0, 1, 2
//	it := seq.Iterate(0, isLessThan(3), increment)
func Iterate[T any](seed T, hasNext iofn.Predicate[T], next iofn.UnaryOperator[T]) Iterator[T] {
	iofn.RequireNonNil("predicate", hasNext == nil)
	iofn.RequireNonNil("operator", next == nil)

	started := false
	cur := seed
	return FromFunc(func() (t T, ok bool, err error) {
		v := seed
		if started {
			v, err = next(cur)
			if err != nil {
				return t, false, err
			}
		}

		ok, err = hasNext(v)
		if err != nil || !ok {
			return t, false, err
		}
		started = true
		cur = v
		return v, true, nil
	})
}

// ForEachRemaining calls c for every remaining element of it. The first
// failure of either it or c is returned.
func ForEachRemaining[T any](it Iterator[T], c iofn.Consumer[T]) error {
	iofn.RequireNonNil("consumer", c == nil)

	for {
		ok, err := it.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		v, err := it.Next()
		if err != nil {
			return err
		}
		err = c(v)
		if err != nil {
			return err
		}
	}
}

// Collect returns the remaining elements of it.
func Collect[T any](it Iterator[T]) ([]T, error) {
	var ts []T
	err := ForEachRemaining(it, func(t T) error {
		ts = append(ts, t)
		return nil
	})
	return ts, err
}

type mapped[T, R any] struct {
	src Iterator[T]
	f   iofn.Function[T, R]
}

// Map returns an [Iterator] which applies f to each element of it.
// f is only applied when Next is called on the returned [Iterator].
// The returned [Iterator] is an [io.Closer] closing it if, and only if,
// it is an [io.Closer].
func Map[T, R any](it Iterator[T], f iofn.Function[T, R]) Iterator[R] {
	iofn.RequireNonNil("function", f == nil)

	m := &mapped[T, R]{src: it, f: f}
	if c, ok := it.(io.Closer); ok {
		return WithCloser[R](m, c)
	}
	return m
}

func (m *mapped[T, R]) HasNext() (bool, error) {
	return m.src.HasNext()
}

func (m *mapped[T, R]) Next() (R, error) {
	t, err := m.src.Next()
	if err != nil {
		var zero R
		return zero, err
	}
	return m.f(t)
}

type closable[T any] struct {
	Iterator[T]
	io.Closer
}

// WithCloser returns a [ClosableIterator] which closes c when closed.
func WithCloser[T any](it Iterator[T], c io.Closer) ClosableIterator[T] {
	return closable[T]{Iterator: it, Closer: c}
}

// Closeable returns a [ClosableIterator] over the [Iterator] carried by f
// which closes f, along with the resources it owns, when closed.
func Closeable[T any](f *resource.Flow[Iterator[T]]) ClosableIterator[T] {
	return WithCloser(f.Value(), f)
}
