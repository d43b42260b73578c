package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

const operationUpdate = "update"

// UpdateUserInput replaces every mutable field of the account named CurrentName.
type UpdateUserInput struct {
	CurrentName string
	NewName     string
	NewEmail    string
	NewPassword string
}

// UpdateUserOutput represents the output of an account update.
// Rejection is nil when Outcome is UpdateOutcomeUpdated.
type UpdateUserOutput struct {
	Outcome   valueobject.UpdateOutcome
	Rejection *domainerror.AuthError
	User      *entity.User
}

// UpdateUserUseCase handles account updates, including password resets.
type UpdateUserUseCase struct {
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	metrics         adapter.MetricsRecorder
	clock           adapter.Clock
	logger          *slog.Logger
}

// NewUpdateUserUseCase creates a new UpdateUserUseCase instance.
func NewUpdateUserUseCase(
	userRepo adapter.UserRepository,
	passwordService adapter.PasswordService,
	metrics adapter.MetricsRecorder,
	clock adapter.Clock,
	logger *slog.Logger,
) *UpdateUserUseCase {
	return &UpdateUserUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		metrics:         metrics,
		clock:           clock,
		logger:          logger.With("usecase", "update_user"),
	}
}

// Execute performs the update. Name and email must stay unique and the new
// password must pass the same gates as at registration.
func (uc *UpdateUserUseCase) Execute(ctx context.Context, input UpdateUserInput) (*UpdateUserOutput, error) {
	user, err := uc.userRepo.FindByName(ctx, input.CurrentName)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return uc.reject(input, valueobject.UpdateOutcomeNotFound, notFoundRejection()), nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.NewName != user.Name {
		taken, err := uc.heldByOther(ctx, user, uc.userRepo.FindByName, input.NewName)
		if err != nil {
			return nil, err
		}
		if taken {
			return uc.reject(input, valueobject.UpdateOutcomeNameConflict, nameConflictRejection()), nil
		}
	}

	if input.NewEmail != user.Email {
		taken, err := uc.heldByOther(ctx, user, uc.userRepo.FindByEmail, input.NewEmail)
		if err != nil {
			return nil, err
		}
		if taken {
			return uc.reject(input, valueobject.UpdateOutcomeEmailConflict, emailConflictRejection()), nil
		}
	}

	if err := uc.passwordService.ValidatePasswordStrength(input.NewPassword); err != nil {
		return uc.reject(input, valueobject.UpdateOutcomeWeakPassword, weakPasswordRejection(err)), nil
	}

	digest, err := uc.passwordService.HashPassword(input.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.Rename(input.NewName, input.NewEmail, digest, uc.clock.Now())
	if err := uc.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, domainerror.ErrUserNotFound):
			return uc.reject(input, valueobject.UpdateOutcomeNotFound, notFoundRejection()), nil
		case errors.Is(err, domainerror.ErrUserAlreadyExists):
			return uc.resolveConflict(ctx, input, user)
		default:
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	uc.metrics.RecordAccountOperation(operationUpdate, string(valueobject.UpdateOutcomeUpdated))
	uc.logger.Log(ctx, adapter.LevelSuccess, "User updated", "previous_name", input.CurrentName, "name", user.Name, "user_id", user.ID)

	return &UpdateUserOutput{
		Outcome: valueobject.UpdateOutcomeUpdated,
		User:    user,
	}, nil
}

type findFunc func(ctx context.Context, value string) (*entity.User, error)

// heldByOther reports whether a user other than self holds value.
func (uc *UpdateUserUseCase) heldByOther(ctx context.Context, self *entity.User, find findFunc, value string) (bool, error) {
	other, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	return other.ID != self.ID, nil
}

func (uc *UpdateUserUseCase) resolveConflict(ctx context.Context, input UpdateUserInput, self *entity.User) (*UpdateUserOutput, error) {
	taken, err := uc.heldByOther(ctx, self, uc.userRepo.FindByName, input.NewName)
	if err != nil {
		return nil, err
	}
	if taken {
		return uc.reject(input, valueobject.UpdateOutcomeNameConflict, nameConflictRejection()), nil
	}
	return uc.reject(input, valueobject.UpdateOutcomeEmailConflict, emailConflictRejection()), nil
}

func (uc *UpdateUserUseCase) reject(input UpdateUserInput, outcome valueobject.UpdateOutcome, rejection *domainerror.AuthError) *UpdateUserOutput {
	uc.metrics.RecordAccountOperation(operationUpdate, string(outcome))
	uc.logger.Info("Update rejected", "name", input.CurrentName, "outcome", outcome)
	return &UpdateUserOutput{
		Outcome:   outcome,
		Rejection: rejection,
	}
}
