package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog logger
type Logger struct {
	logger zerolog.Logger
}

// ServiceName tags every line written by the token service
const ServiceName = "moodlync-tokens"

// Config contains logger configuration
type Config struct {
	Level       string
	Format      string // json or console
	OutputPath  string
	Environment string
}

// New creates a new logger instance. OutputPath, when set, appends log lines to
// that file instead of stdout; if it cannot be opened the logger falls back to
// stdout and says so.
func New(cfg Config) *Logger {
	if cfg.OutputPath == "" {
		return NewWithWriter(cfg, os.Stdout)
	}

	f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := NewWithWriter(cfg, os.Stdout)
		l.logger.Warn().Err(err).Str("path", cfg.OutputPath).Msg("Log file unavailable; writing to stdout")
		return l
	}
	return NewWithWriter(cfg, f)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", ServiceName)
	if cfg.Environment != "" {
		ctx = ctx.Str("env", cfg.Environment)
	}

	return &Logger{logger: ctx.Logger()}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

// ErrorWithErr logs an error with error object
func (l *Logger) ErrorWithErr(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// WarnWithErr logs a warning with error object
func (l *Logger) WarnWithErr(err error, msg string) {
	l.logger.Warn().Err(err).Msg(msg)
}

// With returns a logger with an additional field
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// ForUser returns a logger scoped to one account
func (l *Logger) ForUser(userID int64) *Logger {
	return &Logger{logger: l.logger.With().Int64("user_id", userID).Logger()}
}

// ForRound returns a logger scoped to one pool distribution round
func (l *Logger) ForRound(round int64) *Logger {
	return &Logger{logger: l.logger.With().Int64("pool_round", round).Logger()}
}

// WithFields returns a logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}
