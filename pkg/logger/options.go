package logger

import (
	"io"

	"go.uber.org/zap/zapcore"
)

type config struct {
	level   zapcore.Level
	json    bool
	caller  bool
	writers []zapcore.WriteSyncer
}

// Option configures a logger created with New.
type Option func(*config)

// WithDebug sets the log level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = zapcore.DebugLevel
		} else {
			c.level = zapcore.InfoLevel
		}
	}
}

// WithJSON switches to the JSON encoder for structured service logs. The
// default console encoder is meant for human eyes.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithCaller controls whether log entries carry the caller's file:line.
func WithCaller(caller bool) Option {
	return func(c *config) {
		c.caller = caller
	}
}

// WithWriter overrides the output writer. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []zapcore.WriteSyncer{zapcore.AddSync(w)}
	}
}

// WithWriters sets multiple output writers; every entry is written to all of
// them.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = make([]zapcore.WriteSyncer, 0, len(w))
		for _, writer := range w {
			c.writers = append(c.writers, zapcore.AddSync(writer))
		}
	}
}
