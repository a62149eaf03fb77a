package middleware

import (
	"context"

	authdomain "relay-chat/backend/internal/auth/domain"
)

type contextKey struct{ name string }

var authUserKey = contextKey{"auth_user"}

// WithAuthUser returns a context carrying the authenticated subject.
// Handlers read it back via AuthUserFrom.
func WithAuthUser(ctx context.Context, user authdomain.AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// AuthUserFrom returns the authenticated subject from ctx and true if set;
// otherwise nil, false.
func AuthUserFrom(ctx context.Context) (authdomain.AuthUser, bool) {
	v, ok := ctx.Value(authUserKey).(authdomain.AuthUser)
	return v, ok
}
