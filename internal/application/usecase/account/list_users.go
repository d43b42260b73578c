package account

import (
	"context"
	"fmt"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
)

// ListUsersOutput holds every account ordered by name.
type ListUsersOutput struct {
	Users []*entity.User
}

// ListUsersUseCase lists all accounts.
type ListUsersUseCase struct {
	userRepo adapter.UserRepository
}

// NewListUsersUseCase creates a new ListUsersUseCase instance.
func NewListUsersUseCase(userRepo adapter.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{userRepo: userRepo}
}

// Execute returns all users.
func (uc *ListUsersUseCase) Execute(ctx context.Context) (*ListUsersOutput, error) {
	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &ListUsersOutput{Users: users}, nil
}
