package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"relay-chat/backend/internal/db"
	"relay-chat/backend/internal/user/domain"
)

// PostgresRepository persists users in Postgres. Queries join the caller's
// transaction when one is carried by the context.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository over db.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

var _ Repository = (*PostgresRepository)(nil)

// FindByID returns the user for id, or nil if not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	q := db.QuerierFrom(ctx, r.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, username, nickname, roles, status FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsername returns the user for username, or nil if not found.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username domain.Username) (*domain.User, error) {
	q := db.QuerierFrom(ctx, r.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, username, nickname, roles, status FROM users WHERE username = $1`, string(username))
	return scanUser(row)
}

// ExistsByUsername reports whether a user with username exists.
func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username domain.Username) (bool, error) {
	q := db.QuerierFrom(ctx, r.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, string(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by username: %w", err)
	}
	return exists, nil
}

// Save upserts the user.
func (r *PostgresRepository) Save(ctx context.Context, u *domain.User) error {
	q := db.QuerierFrom(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, username, nickname, roles, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   username = EXCLUDED.username,
		   nickname = EXCLUDED.nickname,
		   roles = EXCLUDED.roles,
		   status = EXCLUDED.status,
		   updated_at = now()`,
		u.ID, string(u.Username), string(u.Nickname),
		strings.Join(domain.RoleNames(u.Roles), ","), string(u.Status))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// DeleteByID removes the user with id. Deleting a missing user is not an error.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	q := db.QuerierFrom(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u      domain.User
		roles  string
		status string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Nickname, &roles, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	for _, name := range strings.Split(roles, ",") {
		if r, ok := domain.ParseRole(name); ok {
			u.Roles = append(u.Roles, r)
		}
	}
	u.Status = domain.Status(status)
	return &u, nil
}
