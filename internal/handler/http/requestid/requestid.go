// Package requestid assigns every API request an ID that ties its log lines
// together and is echoed back to the caller.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header the ID travels in, both directions.
const RequestIDHeader = "X-Request-ID"

type contextKey struct{}

var requestIDKey contextKey

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// FromContext returns the request ID carried by the context, or "" when the
// request never passed through Middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Middleware attaches a request ID to each incoming request. A client-supplied
// X-Request-ID is honored so callers can trace a request through their own
// systems; otherwise a fresh UUID is minted. The ID lands in the request
// context and in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
