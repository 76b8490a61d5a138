package middleware

import (
	"context"
	"net/http"

	"github.com/go-accounts-api/internal/domain"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "SESSION_ID"

type contextKey string

const sessionKey contextKey = "session"

// SessionGetter resolves an opaque session token to its payload.
type SessionGetter interface {
	Get(ctx context.Context, token string) (*domain.SessionData, error)
}

// SessionAuth returns middleware that resolves the session cookie and
// injects the session payload into the request context. Requests without
// a resolvable session are rejected with 401.
func SessionAuth(sessions SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session cookie")
				return
			}
			data, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), data)))
		})
	}
}

// ContextWithSession returns a context carrying the session payload.
func ContextWithSession(ctx context.Context, data *domain.SessionData) context.Context {
	return context.WithValue(ctx, sessionKey, data)
}

// SessionFromContext extracts the session payload placed by SessionAuth.
func SessionFromContext(ctx context.Context) (*domain.SessionData, bool) {
	s, ok := ctx.Value(sessionKey).(*domain.SessionData)
	return s, ok
}

// SessionToken reads the raw session token off the request, empty when absent.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
