// Package respond writes the API's JSON responses. Error responses pass
// through a sanitizing layer so upstream credentials and database internals
// never reach a client.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as the response body with the given status. A nil v writes
// the status line only.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; all that is left is to record the failure.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes the error message verbatim as {"error": ...}. Use SafeError
// for anything that may wrap an internal failure.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// Fragments that mark a message as client-facing. These come from request
// validation and lookup paths; anything else is assumed to describe internals.
var echoableFragments = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"cannot be",
	"too long",
	"too short",
}

// SafeError writes the error to the client only when its message is a
// validation or lookup failure. Everything else, and every 5xx regardless of
// message, is replaced with a generic body while the sanitized original goes
// to the log.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	if code < 500 && safeToEcho(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.Any("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func safeToEcho(msg string) bool {
	lower := strings.ToLower(msg)
	for _, fragment := range echoableFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
