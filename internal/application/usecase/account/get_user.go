package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

// GetUserInput selects a user by ID or, when ID is nil, by name.
type GetUserInput struct {
	ID   uuid.UUID
	Name string
}

// GetUserOutput holds the user, or a not-found rejection.
type GetUserOutput struct {
	User      *entity.User
	Rejection *domainerror.AuthError
}

// GetUserUseCase looks up a single account.
type GetUserUseCase struct {
	userRepo adapter.UserRepository
}

// NewGetUserUseCase creates a new GetUserUseCase instance.
func NewGetUserUseCase(userRepo adapter.UserRepository) *GetUserUseCase {
	return &GetUserUseCase{userRepo: userRepo}
}

// Execute performs the lookup.
func (uc *GetUserUseCase) Execute(ctx context.Context, input GetUserInput) (*GetUserOutput, error) {
	var (
		user *entity.User
		err  error
	)
	if input.ID != uuid.Nil {
		user, err = uc.userRepo.FindByID(ctx, input.ID)
	} else {
		user, err = uc.userRepo.FindByName(ctx, input.Name)
	}

	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return &GetUserOutput{Rejection: notFoundRejection()}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &GetUserOutput{User: user}, nil
}
