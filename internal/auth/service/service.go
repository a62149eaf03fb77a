package service

import (
	"context"
	"errors"
	"time"

	"relay-chat/backend/internal/auth/domain"
	userdomain "relay-chat/backend/internal/user/domain"
)

// Sentinel errors for the auth services; handlers map them to HTTP statuses.
var (
	ErrUnsupportedProvider = errors.New("unsupported authentication provider")
	ErrTokenExpired        = errors.New("refresh token expired")
	ErrTemporalRefresh     = errors.New("temporal tokens cannot be refreshed")
)

const (
	// RefreshTokenExpirationDays is the refresh window granted on login and
	// on every successful refresh.
	RefreshTokenExpirationDays = 14

	// AccessTokenTTL is the lifetime of access tokens issued to permanent users.
	AccessTokenTTL = 15 * time.Minute

	// TemporalAccessTokenTTL is the lifetime of access tokens issued to
	// credentials that have not completed registration yet.
	TemporalAccessTokenTTL = 60 * time.Minute
)

// Command is a provider-specific authentication request.
type Command interface {
	ProviderType() domain.ProviderType
}

// KakaoCommand authenticates with an OAuth authorization code issued by Kakao.
type KakaoCommand struct {
	Code string
}

func (KakaoCommand) ProviderType() domain.ProviderType { return domain.ProviderTypeKakao }

// ProviderResolver verifies a Command against an external identity provider
// and returns the provider identity it proves.
type ProviderResolver interface {
	Supports(t domain.ProviderType) bool
	Resolve(ctx context.Context, cmd Command) (*domain.Provider, error)
}

// CredentialRepo is the minimal credential repository needed by the auth services.
type CredentialRepo interface {
	FindByProvider(ctx context.Context, provider domain.Provider) (*domain.Credential, error)
	Save(ctx context.Context, credential *domain.Credential) error
}

// UserRepo is the minimal user repository needed by the auth services.
type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*userdomain.User, error)
}

// RefreshTokenRepo is the minimal refresh token repository needed by the auth services.
type RefreshTokenRepo interface {
	FindByUserID(ctx context.Context, userID int64) (*domain.RefreshToken, error)
	Save(ctx context.Context, token *domain.RefreshToken) error
	DeleteByUserID(ctx context.Context, userID int64) error
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	Write(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenPair is the outcome of Authenticate, Refresh, or Register. RefreshToken
// is empty for temporal credentials, which only receive an access token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
