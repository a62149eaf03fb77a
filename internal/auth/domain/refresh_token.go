package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a user id to an opaque session id. The session id is
// rotated on every successful refresh; the previous id becomes invalid for
// future comparisons.
type Session struct {
	UserID    int64
	SessionID string
}

// NewSession returns a Session with a fresh random session id.
func NewSession(userID int64) Session {
	return Session{UserID: userID, SessionID: uuid.NewString()}
}

// Rotate replaces the session id with a fresh random value.
func (s *Session) Rotate() {
	s.SessionID = uuid.NewString()
}

// RefreshToken is the rotating credential for a permanent user. At most one
// live RefreshToken exists per user; the store is keyed by user id and a
// save replaces the prior record.
type RefreshToken struct {
	Token     string
	Session   Session
	ExpiredAt time.Time
}

// NewRefreshToken returns a RefreshToken with a fresh opaque bearer token,
// a new session, and expiry expirationDays from now.
func NewRefreshToken(userID int64, expirationDays int, now time.Time) *RefreshToken {
	return &RefreshToken{
		Token:     uuid.NewString(),
		Session:   NewSession(userID),
		ExpiredAt: now.AddDate(0, 0, expirationDays),
	}
}

// Refresh rotates the session id and recomputes the expiry. The bearer
// token string is intentionally left unchanged: rotation changes session
// identity, not the bearer secret.
func (t *RefreshToken) Refresh(expirationDays int, now time.Time) {
	t.Session.Rotate()
	t.ExpiredAt = now.AddDate(0, 0, expirationDays)
}

// IsExpired reports whether the token's expiry has passed.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiredAt)
}
