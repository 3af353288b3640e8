package middleware

import (
	"net"
	"net/http"

	"github.com/kunpeto/driver-management-system-sub001/infrastructure/ratelimit"
)

// KeyFunc extracts the rate-limit key (client IP or actor id) from a
// request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys the rate limiter by remote address, for unauthenticated
// routes like login.
func ByClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByActor keys the rate limiter by the authenticated actor, falling back to
// client IP if no actor is present (should not happen behind Auth).
func ByActor(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return actor.UserID
	}
	return ByClientIP(r)
}

// RateLimit enforces limiter per key; on exhaustion it responds 429 with
// retry_after_seconds per spec §7.
func RateLimit(limiter *ratelimit.KeyedLimiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFn(r)) {
				WriteError(w, ErrRateLimited(60))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
