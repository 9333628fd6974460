package http

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/electroshop/pkg/errors"
	"github.com/utafrali/electroshop/pkg/httputil"
	"github.com/utafrali/electroshop/pkg/middleware"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// maxSessionIDLen bounds the session header so it cannot bloat Redis keys.
const maxSessionIDLen = 128

// SessionFromHeader reads the X-Session-ID header and stores it in the
// request context. Requests without a usable session are rejected with 401.
func SessionFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(middleware.SessionIDHeader))
		if sid == "" || len(sid) > maxSessionIDLen {
			httputil.WriteError(w, r, apperrors.Unauthorized("a cart session is required"), nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
