package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error

	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername returns shared.ErrNotFound when absent
	FindByUsername(ctx context.Context, username string) (*User, error)

	Count(ctx context.Context) (int64, error)
}
