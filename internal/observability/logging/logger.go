// Package logging builds the process-wide structured loggers. Both binaries
// write one JSON line per entry to stdout, where the log collector picks
// them up.
package logging

import (
	"context"
	"log/slog"
	"os"

	"interlocutor/internal/handler/http/requestid"
)

// NewLogger builds the process logger. LOG_LEVEL selects the threshold
// (debug, info, warn, error; default info) and LOG_FORMAT=text switches to
// the human-readable handler for local runs. Source locations are attached
// only at debug level.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// parseLevel maps a LOG_LEVEL value to its slog level. Anything
// unrecognized, including the empty string, means info.
func parseLevel(raw string) slog.Level {
	switch raw {
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

// WithRequestID annotates the logger with the request ID carried by the
// context, so every line written while serving one request correlates.
// Without an ID in the context the logger is returned unchanged.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}
