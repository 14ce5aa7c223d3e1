// Package logging configures the structured logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/oieieio/think-tools/config"
)

const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init builds the process logger and installs it as the slog default.
// Logs go to the rotating file named in cfg, or to fallback when no file is
// set. Every entry carries the command name and a per-run id.
func Init(cfg config.LogSettings, command string, fallback io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	out := fallback
	var initErr error

	if logPath := strings.TrimSpace(cfg.File); logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			initErr = fmt.Errorf("create log directory: %w", err)
		} else {
			out = &lumberjack.Logger{
				Filename:   logPath,
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
				MaxAge:     maxLogAgeDays,
				Compress:   true,
			}
		}
	}

	if out == nil {
		out = io.Discard
	}

	logger := slog.New(newHandler(cfg.Format, out, opts)).With(
		"command", command,
		"run_id", uuid.NewString(),
	)
	slog.SetDefault(logger)

	return logger, initErr
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "warn", "warning", "":
		return slog.LevelWarn
	default:
		return slog.LevelWarn
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.NewJSONHandler(out, opts)
	default:
		return slog.NewTextHandler(out, opts)
	}
}
