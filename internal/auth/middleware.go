// internal/auth/middleware.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"adstrategy-service/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "session"

// IdentityFrom returns the session injected by Middleware, if any.
func IdentityFrom(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(identityKey).(*models.Session)
	return session, ok
}

// WithIdentity returns a context carrying the session. Exposed for tests.
func WithIdentity(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, identityKey, session)
}

// TokenFrom extracts the session token from the Authorization header or the
// session cookie. Bearer tokens win when both are present.
func TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the request identity and injects it into the context.
// Unauthenticated requests are answered 401 with a redirect hint, the API
// form of sending the user to the login page.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Identity(r.Context(), TokenFrom(r))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), session)))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "Authentication required",
		},
		"redirect": "/login",
	})
}
