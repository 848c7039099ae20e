// Package observability provides structured logging for the resolution engine.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps zerolog with engine-specific context helpers. The embedded
// logger exposes the full zerolog event API at call sites.
type Logger struct {
	zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

// NewLogger creates a configured Logger.
func NewLogger(cfg LogConfig) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339})
	} else {
		zl = zerolog.New(output)
	}

	zl = zl.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger()

	return &Logger{Logger: zl}
}

// DefaultLogger returns a logger with development settings.
func DefaultLogger() *Logger {
	return NewLogger(LogConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "resolution-engine",
	})
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent returns a logger scoped to a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}

// WithRequest returns a logger scoped to a request ID.
func (l *Logger) WithRequest(requestID string) *Logger {
	return &Logger{Logger: l.With().Str("request_id", requestID).Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
