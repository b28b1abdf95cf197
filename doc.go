// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package iofn provides functional types whose operations may fail with an error.
//
// Every type is a plain func type so closures can be used directly:
//
//   - Supplier[T]: supplies a value
//   - Consumer[T] and BiConsumer[T, U]: consume one or two values
//   - Function[T, R] and UnaryOperator[T]: transform a value
//   - Predicate[T]: tests a value
//   - Runnable: performs an action
//
// # Composition
//
// Combinators such as [Compose], [AndThen], [Predicate.And] and [Consumer.AndThen]
// build new operations from existing ones. A failing stage always short-circuits
// the rest of the chain and its error is returned untouched.
//
// # Checked and Unchecked
//
// Some APIs only accept funcs without an error result, e.g. [iter.Seq] or
// [sort.Slice]. The Unchecked helpers convert an operation into such a func
// which panics with an [*UncheckedError] when the operation fails. The Checked
// helpers reverse the conversion by recovering that carrier and returning
// the exact error it was created from:
//
//	parse := iofn.Function[string, int](strconv.Atoi)
//	n, err := iofn.CheckedFunction(iofn.UncheckedFunction(parse))("42")
//
// Panics which aren't an [*UncheckedError] are never recovered.
package iofn
