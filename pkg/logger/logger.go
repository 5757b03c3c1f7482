// Package logger provides opinionated logging capabilities for the engram system
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from the given options. With no options it writes
// colorized console output at Info level to stdout.
func New(opts ...Option) *zap.Logger {
	c := config{
		level:   zap.InfoLevel,
		writers: []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)},
		caller:  true,
	}
	for _, opt := range opts {
		opt(&c)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if c.json {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(c.writers...),
		c.level,
	)

	if !c.caller {
		return zap.New(core)
	}
	return zap.New(core, zap.AddCaller())
}

// NewLogger builds a console logger at Info level, or Debug when debug is
// true. It is the default logger for the CLI commands.
func NewLogger(debug bool) *zap.Logger {
	return New(WithDebug(debug))
}

// Nop returns a logger that discards everything. Intended for tests and for
// components that make logging optional.
func Nop() *zap.Logger {
	return zap.NewNop()
}
