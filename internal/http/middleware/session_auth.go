package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const sessionKey contextKey = "portalSession"

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID    string
	SessionID string
}

// SessionValidator checks a bearer token and resolves it to a live session.
// Implemented by the auth service: the token must parse AND the session it
// names must still exist (logout tears sessions down).
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (userID, sessionID string, err error)
}

// SessionAuth enforces a bearer session token on protected endpoints.
func SessionAuth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error": "missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(auth, "Bearer ")
			userID, sessionID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error": "invalid or expired session"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, Session{UserID: userID, SessionID: sessionID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the authenticated session if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
