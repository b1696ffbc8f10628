package logger

import "go.uber.org/zap"

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings accepted by New.
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

// New builds a logger writing to stdout at the given level and encoding.
// Unknown levels fall back to debug, unknown formats to console.
func New(level, format string) *Logger {
	return newZapLogger(level, format)
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback for components constructed without a logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil || l.SugaredLogger == nil {
		return Nop()
	}
	return l
}
