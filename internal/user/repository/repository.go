package repository

import (
	"context"

	"relay-chat/backend/internal/user/domain"
)

// Repository defines persistence for users. Find methods return (nil, nil)
// when no row matches.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username domain.Username) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username domain.Username) (bool, error)
	Save(ctx context.Context, u *domain.User) error
	DeleteByID(ctx context.Context, id int64) error
}
