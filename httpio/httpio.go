// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpio reads HTTP response bodies.
//
// A response body is a resource which must be closed exactly once. [Do] and
// [Fetch] parse the whole body before closing it, while [Lines] returns the
// open body as a closable sequence of lines. Bodies are decoded from the
// charset named by the Content-Type header of the response.
package httpio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/internal/try"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"

	"golang.org/x/text/encoding"
)

// maxErrorBody limits how much of an unsuccessful response body is kept.
const maxErrorBody = 1024

// StatusError occurs if a response has a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

// Error implements the [builtin.error] interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status from %s: %s", e.URL, e.Status)
}

type body struct {
	io.ReadCloser
	enc encoding.Encoding
}

func newBody(resp *http.Response) (*body, error) {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return &body{ReadCloser: resp.Body}, nil
	}

	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return &body{ReadCloser: resp.Body}, nil
	}
	enc, err := textio.LookupCharset(params["charset"])
	if err != nil {
		return nil, err
	}
	return &body{ReadCloser: resp.Body, enc: enc}, nil
}

func (b *body) decoded() io.Reader {
	return textio.Decode(b.ReadCloser, b.enc)
}

func send(c *http.Client) iofn.Function[*http.Request, *body] {
	return func(req *http.Request) (*body, error) {
		resp, err := c.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()

			b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &StatusError{
				URL:        req.URL.Redacted(),
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(b),
			}
		}

		b, err := newBody(resp)
		if err != nil {
			return nil, try.Suppress(err, resp.Body.Close())
		}
		return b, nil
	}
}

// Do sends req with c and parses the response body.
func Do[T any](c *http.Client, req *http.Request, p textio.Parser[T]) (T, error) {
	fetch := resource.ValueOf(
		send(c),
		func(b *body) (T, error) {
			return p.Parse(b.decoded())
		},
		resource.Closer[*body](),
	)

	t, err := fetch(req)
	if err != nil {
		var zero T
		return zero, &iofn.IOError{Op: req.Method, Path: req.URL.Redacted(), Err: err}
	}
	return t, nil
}

// Fetch gets url with c and parses the response body.
func Fetch[T any](ctx context.Context, c *http.Client, url string, p textio.Parser[T]) (T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return Do(c, req, p)
}

// Lines gets url with c and returns the lines of the response body.
// The body stays open until the returned sequence is closed.
func Lines(ctx context.Context, c *http.Client, url string) (seq.ClosableIterator[string], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	open := resource.FlowOf(
		send(c),
		func(b *body) (seq.Iterator[string], error) {
			return textio.ScanLines(b.decoded()), nil
		},
		resource.Closer[*body](),
	)

	flow, err := open(req)
	if err != nil {
		return nil, &iofn.IOError{Op: req.Method, Path: req.URL.Redacted(), Err: err}
	}
	return seq.Closeable(flow), nil
}
