package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUsernameDuplicate is returned when the requested username is taken.
	// Surfaced distinctly so clients can re-prompt.
	ErrUsernameDuplicate = errors.New("username already in use")
	// ErrInvalidUsername wraps username validation failures.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidNickname wraps nickname validation failures.
	ErrInvalidNickname = errors.New("invalid nickname")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Username is a unique handle: 2-30 characters of letters, digits, underscore.
type Username string

// NewUsername validates and returns a Username.
func NewUsername(value string) (Username, error) {
	if len(value) < 2 || len(value) > 30 {
		return "", fmt.Errorf("%w: must be 2-30 characters, got %d", ErrInvalidUsername, len(value))
	}
	if !usernamePattern.MatchString(value) {
		return "", fmt.Errorf("%w: only letters, digits, and underscore allowed", ErrInvalidUsername)
	}
	return Username(value), nil
}

// Nickname is a display name: 2-30 characters, not blank.
type Nickname string

// NewNickname validates and returns a Nickname.
func NewNickname(value string) (Nickname, error) {
	if len(value) < 2 || len(value) > 30 {
		return "", fmt.Errorf("%w: must be 2-30 characters, got %d", ErrInvalidNickname, len(value))
	}
	return Nickname(value), nil
}

// Status is the user's presence state persisted with the user.
type Status string

const (
	// StatusNone is the default; displayed as online. Keeps presence
	// updates off the wire for users who never set a status.
	StatusNone         Status = "NONE"
	StatusOnline       Status = "ONLINE"
	StatusIdle         Status = "IDLE"
	StatusDoNotDisturb Status = "DO_NOT_DISTURB"
	StatusInvisible    Status = "INVISIBLE"
	StatusOffline      Status = "OFFLINE"
)

// Display returns the status other users see.
func (s Status) Display() Status {
	switch s {
	case StatusNone:
		return StatusOnline
	case StatusInvisible:
		return StatusOffline
	default:
		return s
	}
}

// ShouldBroadcast reports whether a change to this status is propagated.
func (s Status) ShouldBroadcast() bool {
	return s != StatusNone
}

// User is the core user entity. IDs are allocated by the snowflake
// generator at creation time.
type User struct {
	ID       int64
	Username Username
	Nickname Nickname
	Roles    []Role
	Status   Status
}

// NewUser returns a User with the nickname defaulted to the username and
// status NONE.
func NewUser(id int64, username Username, roles []Role) *User {
	return &User{
		ID:       id,
		Username: username,
		Nickname: Nickname(username),
		Roles:    roles,
		Status:   StatusNone,
	}
}

// UpdateNickname replaces the display name.
func (u *User) UpdateNickname(nickname Nickname) {
	u.Nickname = nickname
}

// UpdateStatus replaces the presence status.
func (u *User) UpdateStatus(status Status) {
	u.Status = status
}
