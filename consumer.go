// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

// Consumer consumes a value of type T or fails.
type Consumer[T any] func(T) error

// Accept calls f.
func (f Consumer[T]) Accept(t T) error {
	return f(t)
}

// AndThen returns a [Consumer] which calls f and then other. If f
// fails, other is never called.
func (f Consumer[T]) AndThen(other Consumer[T]) Consumer[T] {
	RequireNonNil("consumer", other == nil)

	return func(t T) error {
		err := f(t)
		if err != nil {
			return err
		}
		return other(t)
	}
}

// UncheckedConsumer converts c into a func which panics with
// an [*UncheckedError] when c fails.
func UncheckedConsumer[T any](c Consumer[T]) func(T) {
	RequireNonNil("consumer", c == nil)

	return func(t T) {
		Uncheck(c(t))
	}
}

// CheckedConsumer is the inverse of [UncheckedConsumer].
func CheckedConsumer[T any](f func(T)) Consumer[T] {
	RequireNonNil("consumer", f == nil)

	return func(t T) (err error) {
		defer Catch(&err)

		f(t)
		return nil
	}
}

// BiConsumer consumes two values or fails.
type BiConsumer[T, U any] func(T, U) error

// Accept calls f.
func (f BiConsumer[T, U]) Accept(t T, u U) error {
	return f(t, u)
}

// AndThen returns a [BiConsumer] which calls f and then other. If f
// fails, other is never called.
func (f BiConsumer[T, U]) AndThen(other BiConsumer[T, U]) BiConsumer[T, U] {
	RequireNonNil("consumer", other == nil)

	return func(t T, u U) error {
		err := f(t, u)
		if err != nil {
			return err
		}
		return other(t, u)
	}
}

// UncheckedBiConsumer converts c into a func which panics with
// an [*UncheckedError] when c fails.
func UncheckedBiConsumer[T, U any](c BiConsumer[T, U]) func(T, U) {
	RequireNonNil("consumer", c == nil)

	return func(t T, u U) {
		Uncheck(c(t, u))
	}
}

// CheckedBiConsumer is the inverse of [UncheckedBiConsumer].
func CheckedBiConsumer[T, U any](f func(T, U)) BiConsumer[T, U] {
	RequireNonNil("consumer", f == nil)

	return func(t T, u U) (err error) {
		defer Catch(&err)

		f(t, u)
		return nil
	}
}
