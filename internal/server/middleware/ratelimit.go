package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit middleware bounds how often an endpoint can be hit. The sweep
// trigger is cheap to call but expensive to run, so manual triggers share
// one limiter across all callers.
func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(r, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
