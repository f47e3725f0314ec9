package logger

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync/atomic"
	"time"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// ParseLevel accepts level names in any case and falls back to INFO.
func ParseLevel(s string) LogLevel {
	switch level := LogLevel(strings.ToUpper(strings.TrimSpace(s))); level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return level
	default:
		return LogLevelInfo
	}
}

// Format selects the backend used by Initialize.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatOTEL Format = "otel"
)

type attributes = map[string]any

type LogEntry struct {
	Level      LogLevel
	Message    string
	Attributes attributes
	Error      error
	Timestamp  time.Time
}

type Logger interface {
	Log(ctx context.Context, entry LogEntry)
	Shutdown(ctx context.Context) error
}

type Options struct {
	Format      Format
	ServiceName string
	// Endpoint is the OTLP gRPC collector address, used by FormatOTEL only.
	Endpoint string
	Level    LogLevel
}

type holder struct{ Logger }

var current atomic.Pointer[holder]

func init() {
	Use(nil)
}

type ctxAttrsKey struct{}

// WithAttrs returns a context whose log entries carry attrs in addition to
// their own. Entry attributes win on key collisions.
func WithAttrs(ctx context.Context, attrs attributes) context.Context {
	merged := make(attributes, len(attrs))
	if parent, ok := ctx.Value(ctxAttrsKey{}).(attributes); ok {
		maps.Copy(merged, parent)
	}
	maps.Copy(merged, attrs)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

func entryAttrs(ctx context.Context, attrs attributes) attributes {
	scoped, ok := ctx.Value(ctxAttrsKey{}).(attributes)
	if !ok || len(scoped) == 0 {
		return attrs
	}
	merged := make(attributes, len(scoped)+len(attrs))
	maps.Copy(merged, scoped)
	maps.Copy(merged, attrs)
	return merged
}

func emit(ctx context.Context, level LogLevel, message string, err error, attrs attributes) {
	Log(ctx, LogEntry{
		Level:      level,
		Message:    message,
		Attributes: attrs,
		Error:      err,
	})
}

func Debug(ctx context.Context, message string, attrs attributes) {
	emit(ctx, LogLevelDebug, message, nil, attrs)
}

func Info(ctx context.Context, message string, attrs attributes) {
	emit(ctx, LogLevelInfo, message, nil, attrs)
}

func Warn(ctx context.Context, message string, attrs attributes) {
	emit(ctx, LogLevelWarn, message, nil, attrs)
}

func Error(ctx context.Context, message string, err error, attrs attributes) {
	emit(ctx, LogLevelError, message, err, attrs)
}

// Fatal logs at fatal severity. It never exits; the caller decides how to stop.
func Fatal(ctx context.Context, message string, err error, attrs attributes) {
	emit(ctx, LogLevelFatal, message, err, attrs)
}

// Log fills the timestamp when missing and merges the context attributes.
func Log(ctx context.Context, entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Attributes = entryAttrs(ctx, entry.Attributes)
	current.Load().Log(ctx, entry)
}

func Shutdown(ctx context.Context) error {
	return current.Load().Shutdown(ctx)
}

// Use replaces the global logger. Passing nil restores the no-op logger.
func Use(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	current.Store(&holder{l})
}

func Initialize(opts Options) error {
	var (
		l   Logger
		err error
	)

	switch opts.Format {
	case FormatOTEL:
		l, err = initializeOtelLogger(opts.Endpoint, opts.ServiceName)
	case FormatJSON:
		l, err = initJSONLogger(opts.ServiceName, opts.Level)
	case FormatText, "":
		l, err = initStdoutLogger(opts.ServiceName, opts.Level)
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}
	if err != nil {
		return err
	}

	Use(l)
	return nil
}

type noopLogger struct{}

func (noopLogger) Log(context.Context, LogEntry)  {}
func (noopLogger) Shutdown(context.Context) error { return nil }
