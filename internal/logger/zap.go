package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var zapLevels = map[string]zapcore.Level{
	DebugLevel: zapcore.DebugLevel,
	InfoLevel:  zapcore.InfoLevel,
	WarnLevel:  zapcore.WarnLevel,
	ErrorLevel: zapcore.ErrorLevel,
}

// toZapLevel maps a configured level name; anything unknown logs everything.
func toZapLevel(levelStr string) zapcore.Level {
	if lvl, ok := zapLevels[levelStr]; ok {
		return lvl
	}
	return zapcore.DebugLevel
}

// newEncoder picks a console or JSON encoder. JSON output keeps timestamps so
// it can be shipped to a collector as is.
func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder

	if format == JSONFormat {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(enc zapcore.Encoder, ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
}

func newZapLogger(levelStr, format string) *Logger {
	core := newCore(newEncoder(format), zapcore.Lock(os.Stdout), toZapLevel(levelStr))
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}
