package auth

import (
	"context"
	"fmt"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

// LoginUserInput represents the input for user login.
type LoginUserInput struct {
	Name       string
	Password   string
	IssueToken bool
}

// LoginUserOutput represents the output of user login.
// AccessToken is set only when a token was requested and the user authenticated.
type LoginUserOutput struct {
	Outcome     valueobject.AuthOutcome
	Rejection   *domainerror.AuthError
	User        *entity.User
	AccessToken *adapter.AccessToken
}

// LoginUserUseCase authenticates a user and optionally issues an access token.
type LoginUserUseCase struct {
	authenticate *AuthenticateUserUseCase
	tokenService adapter.TokenService
}

// NewLoginUserUseCase creates a new LoginUserUseCase instance.
func NewLoginUserUseCase(
	authenticate *AuthenticateUserUseCase,
	tokenService adapter.TokenService,
) *LoginUserUseCase {
	return &LoginUserUseCase{
		authenticate: authenticate,
		tokenService: tokenService,
	}
}

// Execute performs the user login.
func (uc *LoginUserUseCase) Execute(ctx context.Context, input LoginUserInput) (*LoginUserOutput, error) {
	result, err := uc.authenticate.Execute(ctx, AuthenticateUserInput{
		Name:     input.Name,
		Password: input.Password,
	})
	if err != nil {
		return nil, err
	}

	output := &LoginUserOutput{
		Outcome:   result.Outcome,
		Rejection: result.Rejection,
		User:      result.User,
	}
	if result.Outcome != valueobject.AuthOutcomeAuthenticated || !input.IssueToken {
		return output, nil
	}

	token, err := uc.tokenService.GenerateAccessToken(ctx, result.User.ID, result.User.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	output.AccessToken = token

	return output, nil
}
