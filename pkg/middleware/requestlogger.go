package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/electroshop/pkg/logger"
)

// SessionIDHeader identifies the shopper's cart session.
const SessionIDHeader = "X-Session-ID"

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// session_id, trace_id and span_id and stores it in the request context.
// Downstream handlers retrieve it with logger.FromContext.
//
// Mount it after RequestLogging and Tracing so both ids are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sid := r.Header.Get(SessionIDHeader); sid != "" {
				ctx = logger.WithSessionID(ctx, sid)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
