package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
)

const refreshTokenKeyPrefix = "refresh_token:"

// refreshTokenDocument is the Redis value for a refresh token.
type refreshTokenDocument struct {
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiredAt time.Time `json:"expiredAt"`
}

// RedisRefreshTokenRepository stores refresh tokens in Redis keyed by user
// id, with a TTL matching the token expiry so stale records evict
// themselves. One key per user enforces the single-live-token invariant.
type RedisRefreshTokenRepository struct {
	client *redis.Client
	clk    clock.Clock
}

// NewRedisRefreshTokenRepository returns a refresh token repository over client.
func NewRedisRefreshTokenRepository(client *redis.Client, clk clock.Clock) *RedisRefreshTokenRepository {
	return &RedisRefreshTokenRepository{client: client, clk: clk}
}

var _ RefreshTokenRepository = (*RedisRefreshTokenRepository)(nil)

func refreshTokenKey(userID int64) string {
	return fmt.Sprintf("%s%d", refreshTokenKeyPrefix, userID)
}

// FindByUserID returns the refresh token for userID, or nil if none is stored.
func (r *RedisRefreshTokenRepository) FindByUserID(ctx context.Context, userID int64) (*domain.RefreshToken, error) {
	data, err := r.client.Get(ctx, refreshTokenKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}

	var doc refreshTokenDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	return &domain.RefreshToken{
		Token: doc.Token,
		Session: domain.Session{
			UserID:    doc.UserID,
			SessionID: doc.SessionID,
		},
		ExpiredAt: doc.ExpiredAt,
	}, nil
}

// Save stores the token under its user's key, replacing any prior token.
func (r *RedisRefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	doc := refreshTokenDocument{
		UserID:    token.Session.UserID,
		Token:     token.Token,
		SessionID: token.Session.SessionID,
		ExpiredAt: token.ExpiredAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	ttl := token.ExpiredAt.Sub(r.clk.Now())
	if ttl <= 0 {
		return r.DeleteByUserID(ctx, token.Session.UserID)
	}
	if err := r.client.Set(ctx, refreshTokenKey(token.Session.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}
	return nil
}

// DeleteByUserID removes the token for userID. Deleting a missing key is not an error.
func (r *RedisRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, refreshTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete refresh token: %w", err)
	}
	return nil
}
