package logging

import (
	"log/slog"
	"os"
)

// New builds the process logger. JSON output for deployments, text for
// local runs.
func New(json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
