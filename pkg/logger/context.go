package logger

import (
	"context"
	"log/slog"
)

type ctxKeyType struct{}

var loggerKey ctxKeyType

// With stores a child logger carrying the given fields in the context.
// Middleware uses it to thread the trace ID through a request.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerKey, From(ctx).With(fields...))
}

// From returns the request-scoped logger, falling back to the process logger
// when the context carries none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
