package observability

import (
	"context"
	"log/slog"
)

var _ slog.Handler = (*NoopHandler)(nil)

// NoopHandler discards every record.  It backs the client's logger until the
// caller injects one.
type NoopHandler struct{}

func NewNoopHandler() slog.Handler {
	return &NoopHandler{}
}

// NewNoopLogger returns a logger that never writes.
func NewNoopLogger() *slog.Logger {
	return slog.New(NewNoopHandler())
}

// OrNoop returns log, or a no-op logger when log is nil.
func OrNoop(log *slog.Logger) *slog.Logger {
	if log == nil {
		return NewNoopLogger()
	}

	return log
}

func (h *NoopHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *NoopHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *NoopHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *NoopHandler) WithGroup(_ string) slog.Handler {
	return h
}
