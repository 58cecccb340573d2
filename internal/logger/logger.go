package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/woonstadrotterdam/sqlgate/internal/config"
)

// Setup installs the process-wide slog logger: a leveled text handler on
// stderr, plus an optional file handler when file_output is configured.
// Stdout stays reserved for query results.
func Setup(cfg config.LoggerConfig) error {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(cfg.ConsoleLevel),
		}),
	}

	if cfg.FileOutput != "" {
		logFile, err := os.OpenFile(cfg.FileOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level:     parseLevel(cfg.FileLevel),
			AddSource: true,
		}))
	}

	slog.SetDefault(slog.New(NewFanoutHandler(handlers...)))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
