// Package auth contains authentication-related use cases.
package auth

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

// AuthenticateUserInput represents the credentials to check.
type AuthenticateUserInput struct {
	Name     string
	Password string
}

// AuthenticateUserOutput represents the result of a credential check.
// Rejection is nil when Outcome is AuthOutcomeAuthenticated.
type AuthenticateUserOutput struct {
	Outcome   valueobject.AuthOutcome
	Rejection *domainerror.AuthError
	User      *entity.User
}

// AuthenticateUserUseCase checks a name and password against the stored digest.
type AuthenticateUserUseCase struct {
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	metrics         adapter.MetricsRecorder
	logger          *slog.Logger
}

// NewAuthenticateUserUseCase creates a new AuthenticateUserUseCase instance.
func NewAuthenticateUserUseCase(
	userRepo adapter.UserRepository,
	passwordService adapter.PasswordService,
	metrics adapter.MetricsRecorder,
	logger *slog.Logger,
) *AuthenticateUserUseCase {
	return &AuthenticateUserUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		metrics:         metrics,
		logger:          logger.With("usecase", "authenticate_user"),
	}
}

// Execute performs the credential check. It only reads from the store.
func (uc *AuthenticateUserUseCase) Execute(ctx context.Context, input AuthenticateUserInput) (*AuthenticateUserOutput, error) {
	user, err := uc.userRepo.FindByName(ctx, input.Name)
	if err != nil {
		if !errors.Is(err, domainerror.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		return uc.reject(input.Name, valueobject.AuthOutcomeUserNotFound, domainerror.NewAuthError(
			domainerror.ErrCodeUserNotFound,
			"User not found",
			domainerror.ErrUserNotFound,
		)), nil
	}

	if !uc.passwordService.VerifyPassword(input.Password, user.PasswordDigest) {
		return uc.reject(input.Name, valueobject.AuthOutcomeWrongPassword, domainerror.NewAuthError(
			domainerror.ErrCodeWrongPassword,
			"Wrong password",
			domainerror.ErrWrongPassword,
		)), nil
	}

	uc.metrics.RecordAuthentication(string(valueobject.AuthOutcomeAuthenticated))
	uc.logger.Info("User authenticated", "name", user.Name, "user_id", user.ID)

	return &AuthenticateUserOutput{
		Outcome: valueobject.AuthOutcomeAuthenticated,
		User:    user,
	}, nil
}

func (uc *AuthenticateUserUseCase) reject(name string, outcome valueobject.AuthOutcome, rejection *domainerror.AuthError) *AuthenticateUserOutput {
	uc.metrics.RecordAuthentication(string(outcome))
	uc.logger.Info("Authentication rejected", "name", name, "outcome", outcome)
	return &AuthenticateUserOutput{
		Outcome:   outcome,
		Rejection: rejection,
	}
}
