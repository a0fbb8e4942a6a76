package logging

import (
	"log/slog"
	"os"
)

var logger *slog.Logger

// Init configures the global structured logger. Production uses JSON output
// for log aggregation; development uses human-readable text.
func Init(environment string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if environment != "production" {
		opts.Level = slog.LevelDebug
	}

	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Get returns the configured logger, initializing a default one if needed.
func Get() *slog.Logger {
	if logger == nil {
		Init("development")
	}
	return logger
}

// WithRun returns a logger scoped to a single orchestrated run.
func WithRun(runID, feature string, provider string) *slog.Logger {
	return Get().With(
		slog.String("run_id", runID),
		slog.String("feature", feature),
		slog.String("provider", provider),
	)
}
