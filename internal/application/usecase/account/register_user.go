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

const operationRegister = "register"

// RegisterUserInput represents the input for user registration.
// Email syntax is validated by the caller.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterUserOutput represents the output of user registration.
// Rejection is nil when Outcome is RegisterOutcomeCreated.
type RegisterUserOutput struct {
	Outcome   valueobject.RegisterOutcome
	Rejection *domainerror.AuthError
	User      *entity.User
}

// RegisterUserUseCase handles user registration logic.
type RegisterUserUseCase struct {
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	emailService    adapter.EmailService
	metrics         adapter.MetricsRecorder
	clock           adapter.Clock
	logger          *slog.Logger
}

// NewRegisterUserUseCase creates a new RegisterUserUseCase instance.
func NewRegisterUserUseCase(
	userRepo adapter.UserRepository,
	passwordService adapter.PasswordService,
	emailService adapter.EmailService,
	metrics adapter.MetricsRecorder,
	clock adapter.Clock,
	logger *slog.Logger,
) *RegisterUserUseCase {
	return &RegisterUserUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		emailService:    emailService,
		metrics:         metrics,
		clock:           clock,
		logger:          logger.With("usecase", "register_user"),
	}
}

// Execute performs the user registration. Both existence checks run before
// anything is hashed or written.
func (uc *RegisterUserUseCase) Execute(ctx context.Context, input RegisterUserInput) (*RegisterUserOutput, error) {
	// Email is checked before name
	emailExists, err := uc.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return uc.reject(input, valueobject.RegisterOutcomeEmailTaken, emailTakenRejection()), nil
	}

	nameExists, err := uc.userRepo.ExistsByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check name existence: %w", err)
	}
	if nameExists {
		return uc.reject(input, valueobject.RegisterOutcomeNameTaken, nameTakenRejection()), nil
	}

	if err := uc.passwordService.ValidatePasswordStrength(input.Password); err != nil {
		return uc.reject(input, valueobject.RegisterOutcomeWeakPassword, weakPasswordRejection(err)), nil
	}

	digest, err := uc.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := entity.NewUser(input.Name, input.Email, digest, uc.clock.Now())
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, domainerror.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// Lost a race with a concurrent registration
		return uc.resolveConflict(ctx, input)
	}

	uc.metrics.RecordAccountOperation(operationRegister, string(valueobject.RegisterOutcomeCreated))
	uc.logger.Log(ctx, adapter.LevelSuccess, "User registered", "name", user.Name, "user_id", user.ID)

	if err := uc.emailService.QueueAccountCreatedEmail(ctx, adapter.QueueAccountCreatedInput{
		UserEmail: user.Email,
		UserName:  user.Name,
	}); err != nil {
		uc.logger.Warn("Failed to queue welcome email", "user_id", user.ID, "error", err)
	}

	return &RegisterUserOutput{
		Outcome: valueobject.RegisterOutcomeCreated,
		User:    user,
	}, nil
}

func (uc *RegisterUserUseCase) resolveConflict(ctx context.Context, input RegisterUserInput) (*RegisterUserOutput, error) {
	emailExists, err := uc.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return uc.reject(input, valueobject.RegisterOutcomeEmailTaken, emailTakenRejection()), nil
	}
	return uc.reject(input, valueobject.RegisterOutcomeNameTaken, nameTakenRejection()), nil
}

func (uc *RegisterUserUseCase) reject(input RegisterUserInput, outcome valueobject.RegisterOutcome, rejection *domainerror.AuthError) *RegisterUserOutput {
	uc.metrics.RecordAccountOperation(operationRegister, string(outcome))
	uc.logger.Info("Registration rejected", "name", input.Name, "outcome", outcome)
	return &RegisterUserOutput{
		Outcome:   outcome,
		Rejection: rejection,
	}
}
