package controller

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/application/usecase/auth"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/integration/entrypoint/dto"
	"github.com/user-accounts/backend/internal/integration/entrypoint/middleware"
)

// AuthController handles authentication endpoints.
type AuthController struct {
	loginUseCase *auth.LoginUserUseCase
	getUseCase   *account.GetUserUseCase
	clock        adapter.Clock
	logger       *slog.Logger
}

// NewAuthController creates a new auth controller instance.
func NewAuthController(
	loginUseCase *auth.LoginUserUseCase,
	getUseCase *account.GetUserUseCase,
	clock adapter.Clock,
	logger *slog.Logger,
) *AuthController {
	return &AuthController{
		loginUseCase: loginUseCase,
		getUseCase:   getUseCase,
		clock:        clock,
		logger:       logger,
	}
}

// Login handles POST /auth/login requests.
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(ctx, err)
		return
	}

	output, err := c.loginUseCase.Execute(ctx.Request.Context(), auth.LoginUserInput{
		Name:       valueobject.NormalizeField(req.Name),
		Password:   req.Password,
		IssueToken: req.IssueToken,
	})
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	if output.Rejection != nil {
		writeRejection(ctx, output.Rejection)
		return
	}

	resp := dto.LoginResponse{
		Outcome: string(output.Outcome),
		User:    dto.ToUserResponse(output.User),
	}
	if output.AccessToken != nil {
		resp.AccessToken = output.AccessToken.Token
		resp.ExpiresAt = &output.AccessToken.ExpiresAt
	}

	ctx.JSON(http.StatusOK, resp)
}

// Token handles POST /auth/token requests with an OAuth2 password grant form.
func (c *AuthController) Token(ctx *gin.Context) {
	var req dto.TokenRequest
	if err := ctx.ShouldBind(&req); err != nil {
		writeInvalidBody(ctx, err)
		return
	}

	output, err := c.loginUseCase.Execute(ctx.Request.Context(), auth.LoginUserInput{
		Name:       valueobject.NormalizeField(req.Username),
		Password:   req.Password,
		IssueToken: true,
	})
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	if output.Rejection != nil {
		// Token clients only distinguish bad credentials.
		ctx.Header("WWW-Authenticate", "Bearer")
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Incorrect username or password",
			Code:  string(output.Rejection.Code),
		})
		return
	}

	expiresIn := output.AccessToken.ExpiresAt.Sub(c.clock.Now()) / time.Second
	ctx.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: output.AccessToken.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(expiresIn),
	})
}

// Me handles GET /auth/me requests.
func (c *AuthController) Me(ctx *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		writeRejection(ctx, domainerror.NewAuthError(domainerror.ErrCodeMissingToken, "Unauthorized", domainerror.ErrInvalidToken))
		return
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), account.GetUserInput{ID: userID})
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	if output.Rejection != nil {
		writeRejection(ctx, output.Rejection)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToUserResponse(output.User))
}

// Logout handles POST /auth/logout requests. Tokens are stateless, so the
// client discarding its token is the logout.
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Successfully logged out",
	})
}
