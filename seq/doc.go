// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package seq provides pull based iterators whose operations may fail.
//
// An [Iterator] is consumed by calling HasNext and Next until HasNext returns
// false. Both may return an error, e.g. when the next element must be read
// from a file. [Cursor] implements the lookahead state machine on top of a
// single advance func so sources only need to produce their next element.
//
// Iterators convert to and from the standard library [iter.Seq] with [All]
// and [FromSeq]. Since [iter.Seq] has no way of reporting an error, failures
// cross that boundary as an [*iofn.UncheckedError] panic.
package seq
