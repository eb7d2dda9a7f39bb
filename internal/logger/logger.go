package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// NewSession creates the logger for one interactive agent session. Everything
// goes to logDir/chat.log; warnings and above are mirrored to stderr so the
// chat transcript on stdout stays clean. The returned closer releases the
// log file.
func NewSession(logDir, sessionID string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("NewSession: create log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "chat.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("NewSession: open log file: %w", err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	sink := zerolog.MultiLevelWriter(f, &levelWriter{w: console, min: zerolog.WarnLevel})

	log := zerolog.New(sink).With().Timestamp().Str("session_id", sessionID).Logger()
	log.Info().Msg("new chat session started")
	return log, f, nil
}

// levelWriter forwards only events at or above min to the wrapped writer.
type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (lw *levelWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (lw *levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < lw.min {
		return len(p), nil
	}
	return lw.w.Write(p)
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}
