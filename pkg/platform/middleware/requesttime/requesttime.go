// Package requesttime pins a single "now" per HTTP request so timestamps
// written during one request (createdAt, lastLogin, expiry checks) agree.
package requesttime

import (
	"net/http"
	"time"

	"credvault/pkg/requestcontext"
)

// Middleware stamps each request with the wall clock in UTC.
var Middleware = New(time.Now)

// New returns a middleware that reads now once per request.
func New(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
