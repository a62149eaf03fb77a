// Package security issues and parses the signed access tokens that carry
// an AuthUser between requests.
package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
	userdomain "relay-chat/backend/internal/user/domain"
)

var (
	// ErrInvalidToken is returned when a token fails signature or claim
	// validation: bad signature, missing or non-numeric subject, or a
	// permanent-user token without a session id.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken is returned by IsExpired when the token cannot be
	// parsed at all, as opposed to an expired but otherwise valid token.
	ErrMalformedToken = errors.New("malformed token")
)

// TokenClaims is the claim set for issued tokens. session-id is present
// only on permanent-user tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Roles     []string `json:"roles"`
	SessionID string   `json:"session-id,omitempty"`
}

// TokenCodec signs HS256 tokens with a symmetric key and decodes them back
// into AuthUser values. Pure and non-blocking; time comes from the
// injected Clock.
type TokenCodec struct {
	key []byte
	clk clock.Clock
}

// NewTokenCodec returns a TokenCodec signing with secretKey.
func NewTokenCodec(secretKey string, clk clock.Clock) *TokenCodec {
	return &TokenCodec{key: []byte(secretKey), clk: clk}
}

// Generate issues a signed token for user expiring ttl from now.
// Subject is the identity's numeric id; temporal users carry exactly the
// TEMPORAL role and no session id.
func (c *TokenCodec) Generate(user authdomain.AuthUser, ttl time.Duration) (string, error) {
	now := c.clk.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	switch u := user.(type) {
	case authdomain.PermanentUser:
		claims.Subject = strconv.FormatInt(u.UserID, 10)
		claims.Roles = userdomain.RoleNames(u.Roles)
		claims.SessionID = u.SessionID
	case authdomain.TemporalUser:
		claims.Subject = strconv.FormatInt(u.CredentialID, 10)
		claims.Roles = []string{string(userdomain.RoleTemporal)}
	default:
		return "", ErrInvalidToken
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Parse validates the token (signature and expiry) and returns its AuthUser.
func (c *TokenCodec) Parse(token string) (authdomain.AuthUser, error) {
	return c.parse(token, jwt.WithTimeFunc(c.clk.Now))
}

// ParseIgnoringExpiration is Parse without the expiry check. The refresh
// flow uses it to recover the identity from an expired access token; all
// other validation still applies.
func (c *TokenCodec) ParseIgnoringExpiration(token string) (authdomain.AuthUser, error) {
	return c.parse(token, jwt.WithoutClaimsValidation())
}

// IsExpired reports whether the token's expiry has passed. A token that
// cannot be parsed at all fails with ErrMalformedToken.
func (c *TokenCodec) IsExpired(token string) (bool, error) {
	claims, err := c.parseClaims(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return false, ErrMalformedToken
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return claims.ExpiresAt.Time.Before(c.clk.Now()), nil
}

func (c *TokenCodec) parse(token string, opts ...jwt.ParserOption) (authdomain.AuthUser, error) {
	claims, err := c.parseClaims(token, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	roles := make([]userdomain.Role, 0, len(claims.Roles))
	for _, name := range claims.Roles {
		if r, ok := userdomain.ParseRole(name); ok {
			roles = append(roles, r)
		}
	}

	if userdomain.HasRole(roles, userdomain.RoleTemporal) {
		return authdomain.TemporalUser{CredentialID: id}, nil
	}

	// A permanent-user token must always carry a session.
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return authdomain.PermanentUser{
		UserID:    id,
		SessionID: claims.SessionID,
		Roles:     roles,
	}, nil
}

func (c *TokenCodec) parseClaims(token string, opts ...jwt.ParserOption) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
