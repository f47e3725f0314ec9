package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// JSONLogger writes one JSON object per entry, for log shippers that tail stdout.
type JSONLogger struct {
	entry *logrus.Entry
}

func initJSONLogger(serviceName string, level LogLevel) (Logger, error) {
	return newJSONLogger(os.Stdout, serviceName, level), nil
}

func newJSONLogger(w io.Writer, serviceName string, level LogLevel) *JSONLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	l.SetLevel(logrusLevel(level))

	return &JSONLogger{entry: l.WithField("service", serviceName)}
}

func logrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError, LogLevelFatal:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *JSONLogger) Log(ctx context.Context, entry LogEntry) {
	e := l.entry.WithContext(ctx).WithFields(logrus.Fields(entry.Attributes))
	if !entry.Timestamp.IsZero() {
		e = e.WithTime(entry.Timestamp)
	}
	if entry.Error != nil {
		e = e.WithError(entry.Error)
	}

	switch entry.Level {
	case LogLevelDebug:
		e.Debug(entry.Message)
	case LogLevelInfo:
		e.Info(entry.Message)
	case LogLevelWarn:
		e.Warn(entry.Message)
	case LogLevelError:
		e.Error(entry.Message)
	case LogLevelFatal:
		// Entry.Fatal would exit the process; callers decide when to exit.
		e.Log(logrus.FatalLevel, entry.Message)
	}
}

func (l *JSONLogger) Shutdown(context.Context) error {
	return nil
}
