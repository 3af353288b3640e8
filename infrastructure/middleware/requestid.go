package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, generating one if the caller
// didn't supply one, and attaches it to the context and response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
