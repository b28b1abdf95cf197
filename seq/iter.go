// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package seq

import (
	"iter"

	"github.com/z5labs/iofn"
)

// All returns an [iter.Seq] over the remaining elements of it. If it
// fails, the returned [iter.Seq] panics with an [*iofn.UncheckedError].
func All[T any](it Iterator[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			ok := iofn.Must(it.HasNext())
			if !ok {
				return
			}
			if !yield(iofn.Must(it.Next())) {
				return
			}
		}
	}
}

// All2 returns an [iter.Seq2] over the remaining elements of it paired
// with a nil error. If it fails, the error is yielded with the zero value
// of T and the sequence stops.
func All2[T any](it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			ok, err := it.HasNext()
			if err != nil {
				yield(zero, err)
				return
			}
			if !ok {
				return
			}

			v, err := it.Next()
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

type pulled[T any] struct {
	*Cursor[T]
	stop func()
}

func (p pulled[T]) Close() error {
	p.stop()
	return nil
}

// FromSeq returns a [ClosableIterator] which pulls its elements from s.
// An [*iofn.UncheckedError] panic raised by s is returned as the error it
// carries. Close must be called if the iterator isn't fully consumed.
func FromSeq[T any](s iter.Seq[T]) ClosableIterator[T] {
	iofn.RequireNonNil("seq", s == nil)

	next, stop := iter.Pull(s)
	c := FromFunc(func() (t T, ok bool, err error) {
		defer iofn.Catch(&err)

		t, ok = next()
		return t, ok, nil
	})
	return pulled[T]{Cursor: c, stop: stop}
}

// FromSeq2 returns a [ClosableIterator] which pulls its elements from s.
// The first non-nil error yielded by s is returned by the iterator.
func FromSeq2[T any](s iter.Seq2[T, error]) ClosableIterator[T] {
	iofn.RequireNonNil("seq", s == nil)

	next, stop := iter.Pull2(s)
	c := FromFunc(func() (T, bool, error) {
		t, err, ok := next()
		if err != nil {
			return t, false, err
		}
		return t, ok, nil
	})
	return pulled[T]{Cursor: c, stop: stop}
}
