package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Level comes from LOG_LEVEL (ERROR, WARN,
// INFO, DEBUG), defaulting to INFO; output is console-encoded on stderr so
// verdict strings on stdout stay machine-readable.
func New() *zap.Logger {
	level := zapcore.InfoLevel
	switch os.Getenv("LOG_LEVEL") {
	case "ERROR":
		level = zapcore.ErrorLevel
	case "WARN":
		level = zapcore.WarnLevel
	case "DEBUG":
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// Nop returns a no-op logger for tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
