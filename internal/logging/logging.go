// Package logging initializes the shared logger once so modules do not
// configure their own. The terminal is the UI surface, so log output goes
// to a file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup opens the log file and installs the default logger.
func Setup(path, level string) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defaultLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return defaultLogger, nil
}

// L returns the default logger. Before Setup it discards everything,
// which keeps library code free of nil checks.
func L() *slog.Logger { return defaultLogger }
