// Package logging wires zerolog for the command line tools and adapts
// it to the loader core's logging interface.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds the process logger: console output with RFC3339
// timestamps, tagged with the tool name. It also replaces the global
// logger so package-level log calls agree with it.
func Init(app string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// BootLogger adapts a zerolog.Logger to the loader's key-value logging
// interface.
type BootLogger struct {
	log zerolog.Logger
}

// NewBootLogger wraps logger for use with boot.WithLogger.
func NewBootLogger(logger zerolog.Logger) *BootLogger {
	return &BootLogger{log: logger}
}

// Debug logs at debug level.
func (l *BootLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

// Info logs at info level.
func (l *BootLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

// Error logs at error level.
func (l *BootLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}
