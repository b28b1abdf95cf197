// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package xmlbind binds XML documents onto Go values with [encoding/xml].
package xmlbind

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"
)

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	return dec
}

// charsetReader supports every charset of the WHATWG encoding index
// in XML declarations.
func charsetReader(label string, r io.Reader) (io.Reader, error) {
	enc, err := textio.LookupCharset(label)
	if err != nil {
		return nil, err
	}
	return textio.Decode(r, enc), nil
}

// Decoder returns a [textio.Parser] which decodes a whole XML document into T.
func Decoder[T any]() textio.ParserFunc[T] {
	return func(r io.Reader) (T, error) {
		var t T
		err := newDecoder(r).Decode(&t)
		return t, err
	}
}

// Encoder returns a [textio.Formatter] which writes T as an XML document,
// beginning with the standard XML header. A non-empty indent pretty
// prints the document.
func Encoder[T any](indent string) textio.FormatterFunc[T] {
	return func(w io.Writer, t T) error {
		_, err := io.WriteString(w, xml.Header)
		if err != nil {
			return err
		}

		enc := xml.NewEncoder(w)
		enc.Indent("", indent)
		err = enc.Encode(t)
		if err != nil {
			return err
		}
		if indent == "" {
			return nil
		}
		_, err = io.WriteString(w, "\n")
		return err
	}
}

// Elements returns a [seq.Iterator] which decodes every element with the
// given local name into T, in document order and at any depth. Matching
// elements nested inside a matching element are decoded as part of it.
func Elements[T any](r io.Reader, name string) seq.Iterator[T] {
	dec := newDecoder(r)
	return seq.FromFunc(func() (T, bool, error) {
		var t T
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				return t, false, nil
			}
			if err != nil {
				return t, false, err
			}

			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != name {
				continue
			}

			err = dec.DecodeElement(&t, &start)
			if err != nil {
				return t, false, err
			}
			return t, true, nil
		}
	})
}

// ElementsFile streams the elements with the given local name from the
// file at path. See [Elements] and [textio.Stream].
func ElementsFile[T any](ctx context.Context, path, name string, opts ...textio.Option) (seq.ClosableIterator[T], error) {
	return textio.Stream(ctx, path, func(r io.Reader) (seq.Iterator[T], error) {
		return Elements[T](r, name), nil
	}, opts...)
}
