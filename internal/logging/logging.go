// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging provides the slog plumbing shared by the iofn packages.
package logging

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NoopHandler discards every record.
type NoopHandler struct{}

func (NoopHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (NoopHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h NoopHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h NoopHandler) WithGroup(_ string) slog.Handler             { return h }

// New returns a logger for h, or a logger discarding everything if h is nil.
func New(h slog.Handler) *slog.Logger {
	if h == nil {
		return slog.New(NoopHandler{})
	}
	return slog.New(h)
}

// TraceHandler is an slog.Handler which correlates records with the
// active span by adding its trace and span ids.
type TraceHandler struct {
	slog slog.Handler
}

// NewTraceHandler wraps h.
func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{slog: h}
}

// Enabled implements the slog.Handler interface.
func (h *TraceHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *TraceHandler) Handle(ctx context.Context, record slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return h.slog.Handle(ctx, record)
	}

	r := record.Clone()
	r.AddAttrs(
		slog.Group(
			"otel",
			String("trace_id", spanCtx.TraceID().String()),
			String("span_id", spanCtx.SpanID().String()),
		),
	)
	return h.slog.Handle(ctx, r)
}

// WithAttrs implements the slog.Handler interface.
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceHandler(h.slog.WithAttrs(attrs))
}

// WithGroup implements the slog.Handler interface.
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return NewTraceHandler(h.slog.WithGroup(name))
}

// Error returns an slog.Attr for an error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for an int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Path returns an slog.Attr for a file path.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}
