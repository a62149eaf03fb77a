package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	authdomain "relay-chat/backend/internal/auth/domain"
	authservice "relay-chat/backend/internal/auth/service"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/snowflake"
	"relay-chat/backend/internal/user/domain"
)

// Sentinel errors for the register service; handlers map them to HTTP statuses.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrAlreadyRegistered  = errors.New("credential already registered")
)

// CredentialRepo is the minimal credential repository needed by the register service.
type CredentialRepo interface {
	FindByID(ctx context.Context, id int64) (*authdomain.Credential, error)
	Save(ctx context.Context, credential *authdomain.Credential) error
}

// Repo is the minimal user repository needed by the register service.
type Repo interface {
	ExistsByUsername(ctx context.Context, username domain.Username) (bool, error)
	Save(ctx context.Context, user *domain.User) error
}

// RefreshTokenRepo is the minimal refresh token repository needed by the register service.
type RefreshTokenRepo interface {
	Save(ctx context.Context, token *authdomain.RefreshToken) error
}

// RegisterService completes a temporal credential's registration: it creates
// the user, assigns it to the credential, and issues the first full token
// pair in one transaction.
type RegisterService struct {
	credentials   CredentialRepo
	users         Repo
	refreshTokens RefreshTokenRepo
	codec         *security.TokenCodec
	ids           *snowflake.Generator
	tx            authservice.TxRunner
	clk           clock.Clock
	logger        *zap.Logger
}

// NewRegisterService returns a RegisterService with the given dependencies.
func NewRegisterService(
	credentials CredentialRepo,
	users Repo,
	refreshTokens RefreshTokenRepo,
	codec *security.TokenCodec,
	ids *snowflake.Generator,
	tx authservice.TxRunner,
	clk clock.Clock,
	logger *zap.Logger,
) *RegisterService {
	return &RegisterService{
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

// Register turns the temporal credential into a permanent user with the
// given username and returns the user's first access/refresh token pair.
func (s *RegisterService) Register(ctx context.Context, credentialID int64, rawUsername string) (*authservice.TokenPair, error) {
	username, err := domain.NewUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	var pair *authservice.TokenPair
	err = s.tx.Write(ctx, func(ctx context.Context) error {
		credential, err := s.credentials.FindByID(ctx, credentialID)
		if err != nil {
			return fmt.Errorf("find credential %d: %w", credentialID, err)
		}
		if credential == nil {
			return fmt.Errorf("%w: %d", ErrCredentialNotFound, credentialID)
		}
		if !credential.IsTemporal() {
			return ErrAlreadyRegistered
		}

		exists, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrUsernameDuplicate, username)
		}

		userID, err := s.ids.NextID()
		if err != nil {
			return fmt.Errorf("generate user id: %w", err)
		}
		user := domain.NewUser(userID, username, []domain.Role{domain.RoleUser})
		if err := s.users.Save(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}

		if err := credential.AssignUser(user.ID); err != nil {
			return err
		}
		if err := s.credentials.Save(ctx, credential); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}

		refresh := authdomain.NewRefreshToken(user.ID, authservice.RefreshTokenExpirationDays, s.clk.Now())
		if err := s.refreshTokens.Save(ctx, refresh); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}

		access, err := s.codec.Generate(authdomain.PermanentUser{
			UserID:    user.ID,
			SessionID: refresh.Session.SessionID,
			Roles:     user.Roles,
		}, authservice.AccessTokenTTL)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}

		s.logger.Info("registered user",
			zap.Int64("userId", user.ID),
			zap.Int64("credentialId", credential.ID))
		pair = &authservice.TokenPair{AccessToken: access, RefreshToken: refresh.Token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}
