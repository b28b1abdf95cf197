// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package iofn

// Runnable performs an action or fails.
type Runnable func() error

// Run calls f.
func (f Runnable) Run() error {
	return f()
}

// AndThen returns a [Runnable] which runs f and then other.
// If f fails, other is never run.
func (f Runnable) AndThen(other Runnable) Runnable {
	RequireNonNil("runnable", other == nil)

	return func() error {
		err := f()
		if err != nil {
			return err
		}
		return other()
	}
}

// UncheckedRunnable converts f into a func which panics with
// an [*UncheckedError] when f fails.
func UncheckedRunnable(f Runnable) func() {
	RequireNonNil("runnable", f == nil)

	return func() {
		Uncheck(f())
	}
}

// CheckedRunnable is the inverse of [UncheckedRunnable].
func CheckedRunnable(f func()) Runnable {
	RequireNonNil("runnable", f == nil)

	return func() (err error) {
		defer Catch(&err)

		f()
		return nil
	}
}
