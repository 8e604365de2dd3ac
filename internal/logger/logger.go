// Package logger adapts the small level-based logging API the rest of the
// tree calls onto github.com/charmbracelet/log, so secrets never reach the
// user-visible stream.
package logger

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Level re-exports charmlog's level type so callers don't import it
// directly.
type Level = charmlog.Level

const (
	LevelDebug = charmlog.DebugLevel
	LevelInfo  = charmlog.InfoLevel
	LevelWarn  = charmlog.WarnLevel
	LevelError = charmlog.ErrorLevel
)

// ParseLevel parses a level name ("debug", "info", "warn", "error").
func ParseLevel(s string) (Level, error) {
	return charmlog.ParseLevel(strings.ToLower(s))
}

// Logger is a thin wrapper over *charmlog.Logger exposing the key-value
// API the pipeline packages call.
type Logger struct {
	inner *charmlog.Logger
}

// New creates a Logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	inner := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return &Logger{inner: inner}
}

func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

// SetLevel changes the minimum level that reaches the writer.
func (l *Logger) SetLevel(level Level) {
	l.inner.SetLevel(level)
}

var redactedKeys = map[string]bool{
	"token":         true,
	"password":      true,
	"authorization": true,
}

// Redacted returns a copy of kv with the value of any key named "token",
// "password", or "authorization" (case-insensitive) replaced with
// "[redacted]". Callers pass the result to Debug/Info/Warn/Error instead of
// the raw key-values whenever a registry credential might be present.
func Redacted(kv ...any) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if ok && redactedKeys[strings.ToLower(key)] {
			out[i+1] = "[redacted]"
		}
	}
	return out
}

var global = New(os.Stderr, LevelInfo)

// Get returns the process-wide default logger.
func Get() *Logger { return global }

// SetGlobal replaces the process-wide default logger.
func SetGlobal(l *Logger) { global = l }
