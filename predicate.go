// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

// Predicate tests a value of type T or fails.
type Predicate[T any] func(T) (bool, error)

// Test calls p.
func (p Predicate[T]) Test(t T) (bool, error) {
	return p(t)
}

// And returns the short-circuiting logical AND of p and other.
// other is not tested if p fails or returns false.
func (p Predicate[T]) And(other Predicate[T]) Predicate[T] {
	RequireNonNil("predicate", other == nil)

	return func(t T) (bool, error) {
		ok, err := p(t)
		if err != nil || !ok {
			return false, err
		}
		return other(t)
	}
}

// Or returns the short-circuiting logical OR of p and other.
// other is not tested if p fails or returns true.
func (p Predicate[T]) Or(other Predicate[T]) Predicate[T] {
	RequireNonNil("predicate", other == nil)

	return func(t T) (bool, error) {
		ok, err := p(t)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		return other(t)
	}
}

// Negate returns the logical negation of p. Errors are returned as is.
func (p Predicate[T]) Negate() Predicate[T] {
	return func(t T) (bool, error) {
		ok, err := p(t)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// Not returns the logical negation of p.
func Not[T any](p Predicate[T]) Predicate[T] {
	RequireNonNil("predicate", p == nil)

	return p.Negate()
}

// IsEqual returns a [Predicate] which tests if its input equals v.
func IsEqual[T comparable](v T) Predicate[T] {
	return func(t T) (bool, error) {
		return t == v, nil
	}
}

// UncheckedPredicate converts p into a func which panics with
// an [*UncheckedError] when p fails.
func UncheckedPredicate[T any](p Predicate[T]) func(T) bool {
	RequireNonNil("predicate", p == nil)

	return func(t T) bool {
		return Must(p(t))
	}
}

// CheckedPredicate is the inverse of [UncheckedPredicate].
func CheckedPredicate[T any](f func(T) bool) Predicate[T] {
	RequireNonNil("predicate", f == nil)

	return func(t T) (ok bool, err error) {
		defer Catch(&err)

		return f(t), nil
	}
}
