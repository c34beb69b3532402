package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	level string
	zl    zerolog.Logger
}

// New returns a JSON logger on stdout tagged with the service name.
func New(service, level string) *Logger {
	return NewWithWriter(service, level, os.Stdout)
}

func NewWithWriter(service, level string, w io.Writer) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
		level = "info"
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", service).Logger()
	return &Logger{level: level, zl: zl}
}

// Nop discards everything; used by tests and tools.
func Nop() *Logger {
	return &Logger{level: "disabled", zl: zerolog.Nop()}
}

func (l *Logger) Level() string {
	return l.level
}

// WithField returns a child logger that always carries key=value.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{level: l.level, zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{level: l.level, zl: l.zl.With().Err(err).Logger()}
}

// Zerolog exposes the underlying logger for call sites that build events field by field.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

func (l *Logger) Fatal(msg string) {
	l.zl.WithLevel(zerolog.FatalLevel).Msg(msg)
	os.Exit(1)
}
