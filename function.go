// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

// Function transforms a value of type T into a value of type R or fails.
type Function[T, R any] func(T) (R, error)

// Apply calls f.
func (f Function[T, R]) Apply(t T) (R, error) {
	return f(t)
}

// UnaryOperator is a [Function] whose input and output types are the same.
type UnaryOperator[T any] = Function[T, T]

// Identity returns a [UnaryOperator] which always returns its input.
func Identity[T any]() UnaryOperator[T] {
	return func(t T) (T, error) {
		return t, nil
	}
}

// Compose returns a [Function] which first applies before and then f.
func Compose[V, T, R any](before Function[V, T], f Function[T, R]) Function[V, R] {
	return AndThen(before, f)
}

// AndThen returns a [Function] which first applies f and then after.
// If f fails, after is never applied.
func AndThen[T, R, V any](f Function[T, R], after Function[R, V]) Function[T, V] {
	RequireNonNil("function", f == nil)
	RequireNonNil("function", after == nil)

	return func(t T) (V, error) {
		r, err := f(t)
		if err != nil {
			var zero V
			return zero, err
		}
		return after(r)
	}
}

// UncheckedFunction converts f into a func which panics with
// an [*UncheckedError] when f fails.
func UncheckedFunction[T, R any](f Function[T, R]) func(T) R {
	RequireNonNil("function", f == nil)

	return func(t T) R {
		return Must(f(t))
	}
}

// CheckedFunction is the inverse of [UncheckedFunction].
func CheckedFunction[T, R any](f func(T) R) Function[T, R] {
	RequireNonNil("function", f == nil)

	return func(t T) (r R, err error) {
		defer Catch(&err)

		return f(t), nil
	}
}
