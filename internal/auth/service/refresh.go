package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/security"
)

// RefreshService rotates refresh-token sessions and issues replacement
// access tokens. Any anomaly between the presented access token and the
// stored session is treated as a possible breach: the affected stored
// tokens are deleted and the caller sees a uniform ErrTokenExpired.
type RefreshService struct {
	refreshTokens RefreshTokenRepo
	codec         *security.TokenCodec
	clk           clock.Clock
	logger        *zap.Logger
}

// NewRefreshService returns a RefreshService with the given dependencies.
func NewRefreshService(
	refreshTokens RefreshTokenRepo,
	codec *security.TokenCodec,
	clk clock.Clock,
	logger *zap.Logger,
) *RefreshService {
	return &RefreshService{
		refreshTokens: refreshTokens,
		codec:         codec,
		clk:           clk,
		logger:        logger,
	}
}

// Refresh validates the (possibly expired) access token against the stored
// refresh session, rotates the session id, and issues a new access token
// carrying the rotated session id. The bearer refresh token string is
// preserved across rotations.
func (s *RefreshService) Refresh(ctx context.Context, accessToken string) (*TokenPair, error) {
	user, err := s.codec.ParseIgnoringExpiration(accessToken)
	if err != nil {
		return nil, err
	}

	permanent, ok := user.(domain.PermanentUser)
	if !ok {
		return nil, ErrTemporalRefresh
	}

	stored, err := s.refreshTokens.FindByUserID(ctx, permanent.UserID)
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if stored == nil {
		s.logger.Warn("refresh rejected: no stored token", zap.Int64("userId", permanent.UserID))
		return nil, ErrTokenExpired
	}

	if stored.Session.UserID != permanent.UserID {
		s.logger.Warn("refresh rejected: stored session belongs to another user",
			zap.Int64("tokenUserId", permanent.UserID),
			zap.Int64("sessionUserId", stored.Session.UserID))
		if err := s.refreshTokens.DeleteByUserID(ctx, permanent.UserID); err != nil {
			return nil, fmt.Errorf("delete refresh token for user %d: %w", permanent.UserID, err)
		}
		if err := s.refreshTokens.DeleteByUserID(ctx, stored.Session.UserID); err != nil {
			return nil, fmt.Errorf("delete refresh token for user %d: %w", stored.Session.UserID, err)
		}
		return nil, ErrTokenExpired
	}

	if stored.Session.SessionID != permanent.SessionID {
		s.logger.Warn("refresh rejected: session id mismatch",
			zap.Int64("userId", permanent.UserID),
			zap.String("tokenSessionId", permanent.SessionID),
			zap.String("storedSessionId", stored.Session.SessionID))
		if err := s.refreshTokens.DeleteByUserID(ctx, permanent.UserID); err != nil {
			return nil, fmt.Errorf("delete refresh token for user %d: %w", permanent.UserID, err)
		}
		return nil, ErrTokenExpired
	}

	if stored.IsExpired(s.clk.Now()) {
		s.logger.Info("refresh rejected: token expired", zap.Int64("userId", permanent.UserID))
		return nil, ErrTokenExpired
	}

	stored.Refresh(RefreshTokenExpirationDays, s.clk.Now())
	if err := s.refreshTokens.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("save rotated refresh token: %w", err)
	}

	access, err := s.codec.Generate(domain.PermanentUser{
		UserID:    permanent.UserID,
		SessionID: stored.Session.SessionID,
		Roles:     permanent.Roles,
	}, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: stored.Token}, nil
}
