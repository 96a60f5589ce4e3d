package logger

import (
	"context"
	"log/slog"
)

// loggerKey is the context key for a request-scoped logger.
type loggerKey struct{}

// WithLogger returns a context carrying the given logger. Handlers attach a
// logger enriched with request attributes (trace ID and the like) so lower
// layers log with the same correlation fields.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext retrieves the request-scoped logger from the context, falling
// back to the process default when none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
