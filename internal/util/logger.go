package util

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// LogLevel represents available log levels
type LogLevel = int

// Log levels
const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var zerologLevels = map[LogLevel]zerolog.Level{
	TraceLevel: zerolog.TraceLevel,
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
}

// ZerologLevel maps a LogLevel onto zerolog, falling back to info for unknown values
func ZerologLevel(level LogLevel) zerolog.Level {
	if lvl, ok := zerologLevels[level]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// InitializeLogger sets up the global logger writing to stderr.
// Stdout is left to command output.
func InitializeLogger(level LogLevel) {
	InitializeLoggerTo(os.Stderr, level)
}

// InitializeLoggerTo sets up the global logger with a console writer on out
func InitializeLoggerTo(out io.Writer, level LogLevel) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ZerologLevel(level))

	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}

	ctx := zerolog.New(output).With().Timestamp()
	if level == TraceLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	log.Debug().Msg("Logger initialized")
}

// GetLogger returns a configured logger for a specific component
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
