// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"context"
	"log/slog"
	"net/url"
)

// MaskFunc rewrites an attribute before it reaches the wrapped handler.
type MaskFunc func(slog.Attr) slog.Attr

// MaskHandler is an slog.Handler which rewrites attributes by key.
type MaskHandler struct {
	slog  slog.Handler
	masks map[string]MaskFunc
}

// NewMaskHandler wraps h, applying masks[a.Key] to every matching attribute.
func NewMaskHandler(h slog.Handler, masks map[string]MaskFunc) *MaskHandler {
	return &MaskHandler{slog: h, masks: masks}
}

// Enabled implements the slog.Handler interface.
func (h *MaskHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *MaskHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.masks) == 0 {
		return h.slog.Handle(ctx, record)
	}

	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.mask(a))
		return true
	})

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	r.AddAttrs(attrs...)
	return h.slog.Handle(ctx, r)
}

// WithAttrs implements the slog.Handler interface.
func (h *MaskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return NewMaskHandler(h.slog.WithAttrs(masked), h.masks)
}

// WithGroup implements the slog.Handler interface.
func (h *MaskHandler) WithGroup(name string) slog.Handler {
	return NewMaskHandler(h.slog.WithGroup(name), h.masks)
}

func (h *MaskHandler) mask(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		masked := make([]any, len(group))
		for i, ga := range group {
			masked[i] = h.mask(ga)
		}
		return slog.Group(a.Key, masked...)
	}
	f, ok := h.masks[a.Key]
	if !ok {
		return a
	}
	return f(a)
}

// Anonymize replaces the attribute value with "****".
func Anonymize(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// RedactURL replaces the password of a URL valued attribute with "xxxxx".
// Values which do not parse as a URL are anonymized.
func RedactURL(a slog.Attr) slog.Attr {
	u, err := url.Parse(a.Value.String())
	if err != nil {
		return Anonymize(a)
	}
	return slog.String(a.Key, u.Redacted())
}
