// Package logger provides a simple logging interface backed by logrus
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// logger implements the Logger interface
type logger struct {
	*logrus.Logger
}

// New creates a logger writing to stdout at the level found in LOG_LEVEL
func New() Logger {
	return NewWithOutput(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// NewWithOutput creates a logger writing to w at the given level
func NewWithOutput(w io.Writer, level Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(toLogrus(level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &logger{Logger: l}
}

// ParseLevel converts string log level to Level type
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether levelStr names a known level
func ValidLevel(levelStr string) bool {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests
func Discard() Logger {
	return NewWithOutput(io.Discard, LevelError)
}
