package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/liamcoop/spanecho/internal/config"
)

// Init builds the process logger. Operational logs default to stderr so that
// stdout carries only rendered spans.
func Init(cfg config.LogConfig) *slog.Logger {
	logLevel := getLogLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	handler := slog.NewJSONHandler(output(cfg.Output), opts)

	logger := slog.New(handler)

	slog.SetDefault(logger)

	return logger
}

func output(name string) io.Writer {
	if strings.ToLower(name) == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}

func getLogLevel(logLevelStr string) slog.Level {
	switch strings.ToLower(logLevelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
