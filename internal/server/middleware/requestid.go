package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"finsweep/internal/logger"
)

// RequestIDHeader carries the correlation id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation id, carried in the request
// context and echoed in the response header. An id supplied by the caller is
// reused so correlation can start upstream. The request line is logged with
// the id attached once the handler returns.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := logger.WithRequestID(r.Context(), id)
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(ctx))

			logger.FromContext(ctx, log).Info("request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
		})
	}
}
