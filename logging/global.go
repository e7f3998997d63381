// Package logging provides the application's structured logging: a global
// slog logger writing text to the console and JSON to a weekly rotating
// file, plus the HTTP request-logging middleware.
package logging

import (
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// InitLogger initializes the global logger. An empty logDir logs to the
// console only, which is what the tests use.
func InitLogger(logDir string) {
	defaultLogger = SetupLogger(logDir)
	slog.SetDefault(defaultLogger)
}

// InitLoggerWithOptions initializes the global logger with explicit
// retention and file size limits.
func InitLoggerWithOptions(logDir string, retentionWeeks int, maxFileSize int64) {
	defaultLogger = SetupLoggerWithOptions(logDir, retentionWeeks, maxFileSize)
	slog.SetDefault(defaultLogger)
}

// Logger returns the global logger, falling back to a console logger when
// InitLogger has not run yet.
func Logger() *slog.Logger {
	if defaultLogger == nil {
		return fallbackLogger()
	}
	return defaultLogger
}

func fallbackLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Package-level helpers for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
