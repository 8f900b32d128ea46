package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger

// InitLogger initializes the global logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
//
// The caller picks the writer: in render mode stdout is the drawing surface,
// so logs must go elsewhere.
func InitLogger(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(NewSubscriberHandler(handler))
	slog.SetDefault(Logger)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type subscriberKey struct{}

// WithSubscriber returns a context carrying the subscriber ID for log records.
func WithSubscriber(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subscriberKey{}, id)
}

// Subscriber extracts the subscriber ID from ctx.
func Subscriber(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subscriberKey{}).(string)
	return id, ok && id != ""
}

// SubscriberHandler wraps a slog.Handler and adds a "subscriber_id"
// attribute when the record's context carries one.
type SubscriberHandler struct {
	inner slog.Handler
}

func NewSubscriberHandler(inner slog.Handler) *SubscriberHandler {
	return &SubscriberHandler{inner: inner}
}

func (h *SubscriberHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SubscriberHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := Subscriber(ctx); ok {
		r.AddAttrs(slog.String("subscriber_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("subscriber handler: %w", err)
	}
	return nil
}

func (h *SubscriberHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SubscriberHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *SubscriberHandler) WithGroup(name string) slog.Handler {
	return &SubscriberHandler{inner: h.inner.WithGroup(name)}
}
