// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package textio parses and formats text read from or written to files and streams.
//
// Reading a file runs through a small decorator chain: the file is optionally
// locked, opened, and its bytes decoded from the configured charset before
// they reach a [Parser]. Writing runs the same chain in reverse with a
// [Formatter]. Every file is opened and released through the
// [github.com/z5labs/iofn/resource] package so it's closed exactly once.
package textio

import (
	"bufio"
	"io"
	"strings"

	"github.com/z5labs/iofn/seq"
)

// Parser parses a value of type T from an io.Reader.
type Parser[T any] interface {
	Parse(io.Reader) (T, error)
}

// ParserFunc is a func variant of the [Parser] interface.
type ParserFunc[T any] func(io.Reader) (T, error)

// Parse implements the [Parser] interface.
func (f ParserFunc[T]) Parse(r io.Reader) (T, error) {
	return f(r)
}

// Formatter formats a value of type T to an io.Writer.
type Formatter[T any] interface {
	Format(io.Writer, T) error
}

// FormatterFunc is a func variant of the [Formatter] interface.
type FormatterFunc[T any] func(io.Writer, T) error

// Format implements the [Formatter] interface.
func (f FormatterFunc[T]) Format(w io.Writer, t T) error {
	return f(w, t)
}

// Text returns a [Parser] which reads everything as a string.
func Text() ParserFunc[string] {
	return func(r io.Reader) (string, error) {
		var sb strings.Builder
		_, err := io.Copy(&sb, r)
		return sb.String(), err
	}
}

// Bytes returns a [Parser] which reads everything as a byte slice.
func Bytes() ParserFunc[[]byte] {
	return io.ReadAll
}

// TextFormatter returns a [Formatter] which writes a string as is.
func TextFormatter() FormatterFunc[string] {
	return func(w io.Writer, s string) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

// ParseString parses a value from s.
func ParseString[T any](s string, p Parser[T]) (T, error) {
	return p.Parse(strings.NewReader(s))
}

// FormatString formats t to a string.
func FormatString[T any](t T, f Formatter[T]) (string, error) {
	var sb strings.Builder
	err := f.Format(&sb, t)
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ScanLines returns a [seq.Iterator] over the lines of r without their
// line endings. Lines longer than the [bufio.Scanner] default limit
// result in an error.
func ScanLines(r io.Reader) seq.Iterator[string] {
	sc := bufio.NewScanner(r)
	return seq.FromFunc(func() (string, bool, error) {
		if sc.Scan() {
			return sc.Text(), true, nil
		}
		return "", false, sc.Err()
	})
}
