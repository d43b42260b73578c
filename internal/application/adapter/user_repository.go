// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/domain/entity"
)

// UserRepository defines the interface for user persistence operations.
// Lookups return domainerror.ErrUserNotFound when nothing matches and writes
// return domainerror.ErrUserAlreadyExists when a unique index rejects them.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by their ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByName retrieves a user by exact, case-sensitive name.
	FindByName(ctx context.Context, name string) (*entity.User, error)

	// FindByEmail retrieves a user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update saves name, email and digest of an existing user.
	Update(ctx context.Context, user *entity.User) error

	// DeleteByName removes the user with the given name.
	DeleteByName(ctx context.Context, name string) error

	// List returns every user ordered by name.
	List(ctx context.Context) ([]*entity.User, error)

	// ExistsByName checks if a user with the given name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RoleRepository seeds and lists account roles.
type RoleRepository interface {
	EnsureDefaults(ctx context.Context) error
	List(ctx context.Context) ([]*entity.Role, error)
}
