package log

import (
	"context"
	"log/slog"
	"strings"
)

// redacted replaces the value of any sensitive attribute.
const redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of attribute keys.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"ticket",
	"cred",
	"ntlm_hash",
	"api_key",
}

// RedactingHandler is a slog.Handler that masks sensitive attributes before
// passing the record on.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps next.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(clean)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSensitive(a.Key) {
		return slog.String(a.Key, redacted)
	}

	// LogValuers are resolved first so a struct that renders itself as a
	// group is still inspected field by field.
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: v}
	}

	group := v.Group()
	clean := make([]slog.Attr, len(group))
	for i, ga := range group {
		clean[i] = redactAttr(ga)
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
