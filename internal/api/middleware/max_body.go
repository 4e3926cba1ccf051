package middleware

import (
	"net/http"
)

// MaxBody limits request body size to maxBytes. Oversized bodies surface as
// *http.MaxBytesError from the handler's decode, which the validation helpers
// map to 413. Use 0 or negative to disable.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
