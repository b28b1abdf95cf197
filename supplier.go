// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

// Supplier supplies a value of type T or fails.
type Supplier[T any] func() (T, error)

// Get calls f.
func (f Supplier[T]) Get() (T, error) {
	return f()
}

// SupplierAndThen returns a [Supplier] which applies f to the value
// supplied by s. An error from either s or f is returned as is.
func SupplierAndThen[T, R any](s Supplier[T], f Function[T, R]) Supplier[R] {
	RequireNonNil("supplier", s == nil)
	RequireNonNil("function", f == nil)

	return func() (R, error) {
		t, err := s()
		if err != nil {
			var zero R
			return zero, err
		}
		return f(t)
	}
}

// UncheckedSupplier converts s into a func which panics with
// an [*UncheckedError] when s fails.
func UncheckedSupplier[T any](s Supplier[T]) func() T {
	RequireNonNil("supplier", s == nil)

	return func() T {
		return Must(s())
	}
}

// CheckedSupplier is the inverse of [UncheckedSupplier].
func CheckedSupplier[T any](f func() T) Supplier[T] {
	RequireNonNil("supplier", f == nil)

	return func() (t T, err error) {
		defer Catch(&err)

		return f(), nil
	}
}
