package util

import (
	"io"
	"log/slog"
	"os"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(level slog.Level, enviroment string) *slog.Logger {
	logger := NewLogger(os.Stdout, level, enviroment)
	slog.SetDefault(logger)
	return logger
}

// NewLogger writes JSON in PROD and text everywhere else.
func NewLogger(w io.Writer, level slog.Level, enviroment string) *slog.Logger {
	loggerOpts := slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}

	if enviroment == "PROD" {
		return slog.New(slog.NewJSONHandler(w, &loggerOpts))
	}
	return slog.New(slog.NewTextHandler(w, &loggerOpts))
}
