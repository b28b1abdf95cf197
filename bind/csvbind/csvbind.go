// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package csvbind binds CSV records onto Go structs.
//
// Records are keyed by the header of the CSV document and mapped onto
// structs with [github.com/mitchellh/mapstructure] using the "csv" struct
// tag. Field values are converted from strings where possible, so a column
// can be bound to e.g. an int, bool or [time.Duration] field.
package csvbind

import (
	"context"
	"encoding"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag used to name the column of a field.
const TagName = "csv"

// Record is a single CSV record keyed by column name.
type Record map[string]string

type options struct {
	comma            rune
	comment          rune
	header           []string
	trimLeadingSpace bool
}

// Option configures how CSV documents are read and written.
type Option func(*options)

// Comma sets the field delimiter.
func Comma(r rune) Option {
	return func(o *options) {
		o.comma = r
	}
}

// Comment sets the character which starts a comment line.
func Comment(r rune) Option {
	return func(o *options) {
		o.comment = r
	}
}

// Header names the columns of a document which has no header line.
func Header(names ...string) Option {
	return func(o *options) {
		o.header = names
	}
}

// TrimLeadingSpace ignores leading white space in fields.
func TrimLeadingSpace() Option {
	return func(o *options) {
		o.trimLeadingSpace = true
	}
}

func newOptions(opts []Option) *options {
	o := &options{comma: ','}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) reader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = o.comma
	cr.Comment = o.comment
	cr.TrimLeadingSpace = o.trimLeadingSpace
	cr.ReuseRecord = true
	if len(o.header) > 0 {
		cr.FieldsPerRecord = len(o.header)
	}
	return cr
}

// HeaderError occurs if a header has an empty or duplicate column name.
type HeaderError struct {
	Column int
	Name   string
}

// Error implements the [builtin.error] interface.
func (e HeaderError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("csv header column %d has no name", e.Column)
	}
	return fmt.Sprintf("csv header column %d has a duplicate name: %s", e.Column, e.Name)
}

func validateHeader(header []string) error {
	for i, name := range header {
		if name == "" {
			return HeaderError{Column: i + 1}
		}
		if slices.Contains(header[:i], name) {
			return HeaderError{Column: i + 1, Name: name}
		}
	}
	return nil
}

// Records returns a [seq.Iterator] over the records of r. Unless a
// [Header] is given, the first line of r is used as the header.
func Records(r io.Reader, opts ...Option) seq.Iterator[Record] {
	o := newOptions(opts)
	cr := o.reader(r)
	header := slices.Clone(o.header)

	return seq.FromFunc(func() (Record, bool, error) {
		if header == nil {
			fields, err := cr.Read()
			if err == io.EOF {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			header = slices.Clone(fields)
			err = validateHeader(header)
			if err != nil {
				return nil, false, err
			}
		}

		fields, err := cr.Read()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}

		rec := make(Record, len(header))
		for i, name := range header {
			rec[name] = fields[i]
		}
		return rec, true, nil
	})
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// Bind maps rec onto a new T.
func Bind[T any](rec Record) (T, error) {
	var t T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook(),
		TagName:          TagName,
		WeaklyTypedInput: true,
		Result:           &t,
	})
	if err != nil {
		return t, err
	}
	err = dec.Decode(rec)
	return t, err
}

// Decode returns a [seq.Iterator] which binds every record of r onto T.
func Decode[T any](r io.Reader, opts ...Option) seq.Iterator[T] {
	return seq.Map(Records(r, opts...), iofn.Function[Record, T](Bind[T]))
}

// Decoder returns a [textio.Parser] which binds every record onto T.
func Decoder[T any](opts ...Option) textio.ParserFunc[[]T] {
	return func(r io.Reader) ([]T, error) {
		return seq.Collect(Decode[T](r, opts...))
	}
}

// DecodeFile streams the records of the file at path bound onto T.
func DecodeFile[T any](ctx context.Context, path string, opts []Option, fileOpts ...textio.Option) (seq.ClosableIterator[T], error) {
	return textio.Stream(ctx, path, func(r io.Reader) (seq.Iterator[T], error) {
		return Decode[T](r, opts...), nil
	}, fileOpts...)
}

// ErrNoHeader is returned by [Encoder] if the header can't be derived
// from the struct type and none was given.
var ErrNoHeader = errors.New("csvbind: no header")

type column struct {
	name  string
	index int
}

func columns(typ reflect.Type) []column {
	var cols []column
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

func structType(typ reflect.Type) (reflect.Type, bool) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ, typ.Kind() == reflect.Struct
}

// StructHeader returns the column names of the struct type T in field order.
func StructHeader[T any]() []string {
	typ, ok := structType(reflect.TypeFor[T]())
	if !ok {
		return nil
	}

	var header []string
	for _, col := range columns(typ) {
		header = append(header, col.name)
	}
	return header
}

// Unbind maps the struct t onto a [Record]. It's the inverse of [Bind]
// for fields of basic types, [time.Duration] and [encoding.TextMarshaler]s.
func Unbind[T any](t T) (Record, error) {
	v := reflect.ValueOf(t)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return Record{}, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csvbind: can't unbind %s", v.Type())
	}

	cols := columns(v.Type())
	rec := make(Record, len(cols))
	for _, col := range cols {
		s, err := format(v.Field(col.index).Interface())
		if err != nil {
			return nil, err
		}
		rec[col.name] = s
	}
	return rec, nil
}

func format(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		return string(b), err
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// Encoder returns a [textio.Formatter] which writes ts as a CSV document.
// The header defaults to the columns of T, see [StructHeader].
func Encoder[T any](opts ...Option) textio.FormatterFunc[[]T] {
	o := newOptions(opts)
	header := o.header
	if len(header) == 0 {
		header = StructHeader[T]()
	}

	return func(w io.Writer, ts []T) error {
		if len(header) == 0 {
			return ErrNoHeader
		}

		cw := csv.NewWriter(w)
		cw.Comma = o.comma

		err := cw.Write(header)
		if err != nil {
			return err
		}

		row := make([]string, len(header))
		for _, t := range ts {
			rec, err := Unbind(t)
			if err != nil {
				return err
			}
			for i, name := range header {
				row[i] = rec[name]
			}
			err = cw.Write(row)
			if err != nil {
				return err
			}
		}

		cw.Flush()
		return cw.Error()
	}
}
