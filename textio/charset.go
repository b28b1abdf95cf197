// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package textio

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// UnknownCharsetError occurs if a charset name isn't registered in the
// WHATWG encoding index.
type UnknownCharsetError struct {
	Name  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UnknownCharsetError) Error() string {
	return fmt.Sprintf("unknown charset %q: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnknownCharsetError) Unwrap() error {
	return e.Cause
}

// LookupCharset returns the encoding for the given charset name,
// e.g. "utf-8", "windows-1252" or "shift_jis". An empty name results
// in a nil encoding which leaves bytes untouched.
func LookupCharset(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, UnknownCharsetError{Name: name, Cause: err}
	}
	return enc, nil
}

// Decode returns an io.Reader which decodes the bytes read from r
// into UTF-8. A nil enc returns r.
func Decode(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

// Encode returns an io.WriteCloser which encodes the UTF-8 written to it
// before passing it on to w. Closing it flushes any buffered bytes but
// does not close w.
func Encode(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil {
		return nopWriteCloser{w}
	}
	return enc.NewEncoder().Writer(w).(io.WriteCloser)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
