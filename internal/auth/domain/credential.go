package domain

import "errors"

var (
	// ErrEmptyExternalID is returned when a provider identity has no external id.
	ErrEmptyExternalID = errors.New("external id must not be empty")
	// ErrUserAlreadyAssigned is returned when a credential's user transition runs twice.
	ErrUserAlreadyAssigned = errors.New("credential already has a user assigned")
)

// ProviderType identifies an external identity provider.
type ProviderType string

const (
	ProviderTypeKakao ProviderType = "KAKAO"
)

// Provider is an external-provider identity: the provider and the user's id
// within that provider.
type Provider struct {
	Type       ProviderType
	ExternalID string
}

// NewProvider validates and returns a Provider.
func NewProvider(t ProviderType, externalID string) (Provider, error) {
	if externalID == "" {
		return Provider{}, ErrEmptyExternalID
	}
	return Provider{Type: t, ExternalID: externalID}, nil
}

// Credential links an external-provider identity to an internal user.
// UserID is nil exactly while the credential is temporal: the external
// identity authenticated but the user has not completed registration.
// The record is never deleted in normal flow.
type Credential struct {
	ID       int64
	UserID   *int64
	Provider Provider
}

// NewCredential returns a temporal Credential for the given provider identity.
func NewCredential(id int64, provider Provider) *Credential {
	return &Credential{ID: id, Provider: provider}
}

// IsTemporal reports whether the credential has no user yet.
func (c *Credential) IsTemporal() bool {
	return c.UserID == nil
}

// AssignUser completes the temporal-to-permanent transition. It may run at
// most once per credential.
func (c *Credential) AssignUser(userID int64) error {
	if c.UserID != nil {
		return ErrUserAlreadyAssigned
	}
	c.UserID = &userID
	return nil
}
