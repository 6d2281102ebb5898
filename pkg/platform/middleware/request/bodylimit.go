package request

import (
	"net/http"
)

// BodyLimit caps request bodies. Verification payloads carry one embedding and
// a short phoneme transcript, so a small limit is plenty.
// Overflow surfaces as a decode error in the handler (413 semantics via MaxBytesReader).
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
