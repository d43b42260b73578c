package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/user-accounts/backend/internal/application/adapter"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

const operationDelete = "delete"

// DeleteUserInput represents the input for account deletion.
type DeleteUserInput struct {
	Name string
}

// DeleteUserOutput represents the output of account deletion.
type DeleteUserOutput struct {
	Outcome   valueobject.DeleteOutcome
	Rejection *domainerror.AuthError
}

// DeleteUserUseCase removes an account by name.
type DeleteUserUseCase struct {
	userRepo adapter.UserRepository
	metrics  adapter.MetricsRecorder
	logger   *slog.Logger
}

// NewDeleteUserUseCase creates a new DeleteUserUseCase instance.
func NewDeleteUserUseCase(
	userRepo adapter.UserRepository,
	metrics adapter.MetricsRecorder,
	logger *slog.Logger,
) *DeleteUserUseCase {
	return &DeleteUserUseCase{
		userRepo: userRepo,
		metrics:  metrics,
		logger:   logger.With("usecase", "delete_user"),
	}
}

// Execute performs the deletion.
func (uc *DeleteUserUseCase) Execute(ctx context.Context, input DeleteUserInput) (*DeleteUserOutput, error) {
	if err := uc.userRepo.DeleteByName(ctx, input.Name); err != nil {
		if !errors.Is(err, domainerror.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to delete user: %w", err)
		}
		uc.metrics.RecordAccountOperation(operationDelete, string(valueobject.DeleteOutcomeNotFound))
		uc.logger.Info("Delete rejected", "name", input.Name, "outcome", valueobject.DeleteOutcomeNotFound)
		return &DeleteUserOutput{
			Outcome:   valueobject.DeleteOutcomeNotFound,
			Rejection: notFoundRejection(),
		}, nil
	}

	uc.metrics.RecordAccountOperation(operationDelete, string(valueobject.DeleteOutcomeDeleted))
	uc.logger.Log(ctx, adapter.LevelSuccess, "User deleted", "name", input.Name)

	return &DeleteUserOutput{Outcome: valueobject.DeleteOutcomeDeleted}, nil
}
