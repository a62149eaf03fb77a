package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/db"
)

// PostgresCredentialRepository persists auth credentials in Postgres.
// Queries join the caller's transaction when one is carried by the context.
type PostgresCredentialRepository struct {
	db *sql.DB
}

// NewPostgresCredentialRepository returns a credential repository over db.
func NewPostgresCredentialRepository(database *sql.DB) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{db: database}
}

var _ CredentialRepository = (*PostgresCredentialRepository)(nil)

// FindByID returns the credential for id, or nil if not found.
func (r *PostgresCredentialRepository) FindByID(ctx context.Context, id int64) (*domain.Credential, error) {
	q := db.QuerierFrom(ctx, r.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, provider_type, external_id
		 FROM auth_credentials
		 WHERE id = $1`, id)
	return scanCredential(row)
}

// FindByProvider returns the credential for the provider identity, or nil if not found.
func (r *PostgresCredentialRepository) FindByProvider(ctx context.Context, provider domain.Provider) (*domain.Credential, error) {
	q := db.QuerierFrom(ctx, r.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, provider_type, external_id
		 FROM auth_credentials
		 WHERE provider_type = $1 AND external_id = $2`,
		string(provider.Type), provider.ExternalID)
	return scanCredential(row)
}

// Save upserts the credential. The only mutation after creation is the
// one-shot user_id assignment.
func (r *PostgresCredentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	q := db.QuerierFrom(ctx, r.db)
	var userID sql.NullInt64
	if c.UserID != nil {
		userID = sql.NullInt64{Int64: *c.UserID, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO auth_credentials (id, user_id, provider_type, external_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id`,
		c.ID, userID, string(c.Provider.Type), c.Provider.ExternalID)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func scanCredential(row *sql.Row) (*domain.Credential, error) {
	var (
		c            domain.Credential
		userID       sql.NullInt64
		providerType string
	)
	err := row.Scan(&c.ID, &userID, &providerType, &c.Provider.ExternalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	c.Provider.Type = domain.ProviderType(providerType)
	return &c, nil
}
