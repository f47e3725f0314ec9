package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
)

// StdoutLogger writes logfmt style lines through log/slog.
type StdoutLogger struct {
	logger *slog.Logger
}

func initStdoutLogger(serviceName string, level LogLevel) (Logger, error) {
	return newStdoutLogger(os.Stdout, serviceName, level), nil
}

func newStdoutLogger(w io.Writer, serviceName string, level LogLevel) *StdoutLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return &StdoutLogger{
		logger: slog.New(handler).With(slog.String("service", serviceName)),
	}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError, LogLevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogAttrs sorts attributes by key so lines are stable between runs.
func slogAttrs(entry LogEntry) []slog.Attr {
	keys := make([]string, 0, len(entry.Attributes))
	for key := range entry.Attributes {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, entry.Attributes[key]))
	}
	if entry.Error != nil {
		attrs = append(attrs, slog.String("error", entry.Error.Error()))
	}
	return attrs
}

func (l *StdoutLogger) Log(ctx context.Context, entry LogEntry) {
	l.logger.LogAttrs(ctx, slogLevel(entry.Level), entry.Message, slogAttrs(entry)...)
}

func (l *StdoutLogger) Shutdown(context.Context) error {
	return nil
}
