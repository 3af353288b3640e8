package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
)

// Recovery recovers from panics in downstream handlers, logs the stack, and
// responds with a 500 ServiceError instead of crashing the process.
func Recovery(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.WithContext(r.Context()).WithFields(map[string]any{
						"panic":  fmt.Sprintf("%v", recovered),
						"stack":  string(debug.Stack()),
						"path":   r.URL.Path,
						"method": r.Method,
					}).Error("panic recovered")
					WriteError(w, ErrInternal("internal server error", fmt.Errorf("%v", recovered)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
