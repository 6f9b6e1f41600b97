package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type loggerContextKey struct{}

var fallbackLogger = NewJSONLogger(os.Stdout).With(slog.String("logger", "fallback"))

// NewJSONLogger returns a JSON logger that annotates records with the active trace
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(NewTracingLogHandler(slog.NewJSONHandler(w, nil)))
}

// FromContext returns the logger stored in ctx, or a fallback logger writing to stdout
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallbackLogger
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// AddMetaToContext stores a logger with attrs added to every record
func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	handler := FromContext(ctx).Handler().WithAttrs(attrs)
	return AddToContext(ctx, slog.New(handler))
}
