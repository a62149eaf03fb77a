package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/snowflake"
)

// AuthenticateService exchanges provider credentials for tokens. Unknown
// provider identities are bound to a fresh temporal credential that can only
// complete registration; known identities with an assigned user receive a
// full access/refresh token pair.
type AuthenticateService struct {
	resolvers     []ProviderResolver
	credentials   CredentialRepo
	users         UserRepo
	refreshTokens RefreshTokenRepo
	codec         *security.TokenCodec
	ids           *snowflake.Generator
	tx            TxRunner
	clk           clock.Clock
	logger        *zap.Logger
}

// NewAuthenticateService returns an AuthenticateService with the given dependencies.
func NewAuthenticateService(
	resolvers []ProviderResolver,
	credentials CredentialRepo,
	users UserRepo,
	refreshTokens RefreshTokenRepo,
	codec *security.TokenCodec,
	ids *snowflake.Generator,
	tx TxRunner,
	clk clock.Clock,
	logger *zap.Logger,
) *AuthenticateService {
	return &AuthenticateService{
		resolvers:     resolvers,
		credentials:   credentials,
		users:         users,
		refreshTokens: refreshTokens,
		codec:         codec,
		ids:           ids,
		tx:            tx,
		clk:           clk,
		logger:        logger,
	}
}

// Authenticate verifies the command against its provider and issues tokens.
func (s *AuthenticateService) Authenticate(ctx context.Context, cmd Command) (*TokenPair, error) {
	resolver, err := s.resolverFor(cmd.ProviderType())
	if err != nil {
		return nil, err
	}
	provider, err := resolver.Resolve(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve %s identity: %w", cmd.ProviderType(), err)
	}

	var pair *TokenPair
	err = s.tx.Write(ctx, func(ctx context.Context) error {
		credential, err := s.findOrCreateCredential(ctx, *provider)
		if err != nil {
			return err
		}
		if credential.IsTemporal() {
			pair, err = s.issueTemporal(credential)
			return err
		}
		pair, err = s.issuePermanent(ctx, credential)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthenticateService) resolverFor(t domain.ProviderType) (ProviderResolver, error) {
	for _, r := range s.resolvers {
		if r.Supports(t) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, t)
}

func (s *AuthenticateService) findOrCreateCredential(ctx context.Context, provider domain.Provider) (*domain.Credential, error) {
	credential, err := s.credentials.FindByProvider(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if credential != nil {
		return credential, nil
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("generate credential id: %w", err)
	}
	credential = domain.NewCredential(id, provider)
	if err := s.credentials.Save(ctx, credential); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	s.logger.Info("created temporal credential",
		zap.Int64("credentialId", credential.ID),
		zap.String("provider", string(provider.Type)))
	return credential, nil
}

func (s *AuthenticateService) issueTemporal(credential *domain.Credential) (*TokenPair, error) {
	access, err := s.codec.Generate(domain.TemporalUser{CredentialID: credential.ID}, TemporalAccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate temporal token: %w", err)
	}
	return &TokenPair{AccessToken: access}, nil
}

func (s *AuthenticateService) issuePermanent(ctx context.Context, credential *domain.Credential) (*TokenPair, error) {
	user, err := s.users.FindByID(ctx, *credential.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", *credential.UserID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("credential %d references missing user %d", credential.ID, *credential.UserID)
	}

	refresh := domain.NewRefreshToken(user.ID, RefreshTokenExpirationDays, s.clk.Now())
	if err := s.refreshTokens.Save(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	access, err := s.codec.Generate(domain.PermanentUser{
		UserID:    user.ID,
		SessionID: refresh.Session.SessionID,
		Roles:     user.Roles,
	}, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}
