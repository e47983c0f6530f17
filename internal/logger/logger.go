package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger. Development mode uses the console encoder
// with colored levels; production emits JSON at info level.
func New(development bool) (*zap.Logger, error) {
	return NewWithLevel(development, zapcore.InfoLevel)
}

// NewWithLevel creates a logger with an explicit minimum level.
func NewWithLevel(development bool, level zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if level == zapcore.InfoLevel {
			level = zapcore.DebugLevel
		}
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// Must creates a logger or panics
func Must(development bool) *zap.Logger {
	log, err := New(development)
	if err != nil {
		panic(err)
	}
	return log
}
