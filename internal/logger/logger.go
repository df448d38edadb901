package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/castforge/castforge/internal/config"
)

// SetupLogger configures structured logging for the TUI. Stdout belongs
// to the terminal renderer, so logs go to LOG_FILE when set and are
// discarded otherwise.
func SetupLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = io.Discard

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = file
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level(cfg.Env, cfg.LogLevel),
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// SetupServerLogger configures structured JSON logging on stdout.
func SetupServerLogger(cfg *config.ServerConfig) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level(cfg.Env, cfg.LogLevel),
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func level(env, logLevel string) slog.Level {
	l := slog.LevelInfo
	if env == "development" {
		l = slog.LevelDebug
	}
	if logLevel == "debug" {
		l = slog.LevelDebug
	}

	return l
}
