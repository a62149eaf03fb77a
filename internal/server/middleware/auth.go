// Package middleware provides the HTTP middleware chain: bearer-token
// authentication and the context plumbing handlers use to read the
// authenticated subject.
package middleware

import (
	"net/http"
	"strings"

	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/web"
)

const bearerPrefix = "bearer "

// Authenticate returns middleware that validates the Bearer access token,
// if present, and sets the authenticated subject in the request context.
// Requests without a valid token pass through anonymously; endpoints that
// need a subject enforce it with RequireAuth.
func Authenticate(codec *security.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := codec.Parse(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// RequireAuth returns middleware that rejects requests whose context has no
// authenticated subject.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AuthUserFrom(r.Context()); !ok {
			web.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearer returns the Bearer token from the Authorization header, or
// "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
