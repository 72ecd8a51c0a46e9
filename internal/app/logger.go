package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger: JSON at INFO for prod,
// text at DEBUG everywhere else. Every record carries the service name
// so aggregated logs stay filterable.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler).With("service", "chat")
}
