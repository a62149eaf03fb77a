package repository

import (
	"context"

	"relay-chat/backend/internal/auth/domain"
)

// CredentialRepository defines persistence for auth credentials.
// Find methods return (nil, nil) when no row matches.
type CredentialRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Credential, error)
	FindByProvider(ctx context.Context, provider domain.Provider) (*domain.Credential, error)
	Save(ctx context.Context, c *domain.Credential) error
}

// RefreshTokenRepository defines persistence for refresh tokens, keyed by
// user id: saving replaces any prior token for the same user, which is what
// enforces the one-live-token-per-user invariant.
type RefreshTokenRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*domain.RefreshToken, error)
	Save(ctx context.Context, token *domain.RefreshToken) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
