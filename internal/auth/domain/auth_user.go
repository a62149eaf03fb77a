package domain

import userdomain "relay-chat/backend/internal/user/domain"

// AuthUser is the subject embedded in issued tokens. It is a closed sum of
// PermanentUser and TemporalUser; consumers switch exhaustively on the
// concrete type.
type AuthUser interface {
	isAuthUser()
}

// PermanentUser is a registered user. A permanent user's token always
// carries the session id of their current refresh-token session.
type PermanentUser struct {
	UserID    int64
	SessionID string
	Roles     []userdomain.Role
}

func (PermanentUser) isAuthUser() {}

// TemporalUser has authenticated with an external provider but has not
// completed registration. It carries an implicit TEMPORAL role and cannot
// hold a refresh token.
type TemporalUser struct {
	CredentialID int64
}

func (TemporalUser) isAuthUser() {}
