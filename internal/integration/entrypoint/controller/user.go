package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user-accounts/backend/internal/application/usecase/account"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/integration/entrypoint/dto"
	"github.com/user-accounts/backend/internal/integration/entrypoint/middleware"
)

// UserController handles account management endpoints.
type UserController struct {
	registerUseCase *account.RegisterUserUseCase
	updateUseCase   *account.UpdateUserUseCase
	deleteUseCase   *account.DeleteUserUseCase
	getUseCase      *account.GetUserUseCase
	listUseCase     *account.ListUsersUseCase
	logger          *slog.Logger
}

// NewUserController creates a new user controller instance.
func NewUserController(
	registerUseCase *account.RegisterUserUseCase,
	updateUseCase *account.UpdateUserUseCase,
	deleteUseCase *account.DeleteUserUseCase,
	getUseCase *account.GetUserUseCase,
	listUseCase *account.ListUsersUseCase,
	logger *slog.Logger,
) *UserController {
	return &UserController{
		registerUseCase: registerUseCase,
		updateUseCase:   updateUseCase,
		deleteUseCase:   deleteUseCase,
		getUseCase:      getUseCase,
		listUseCase:     listUseCase,
		logger:          logger,
	}
}

// Register handles POST /users requests.
func (c *UserController) Register(ctx *gin.Context) {
	var req dto.RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(ctx, err)
		return
	}
	if !normalizeAccountFields(ctx, &req.Name, &req.Email) {
		return
	}

	output, err := c.registerUseCase.Execute(ctx.Request.Context(), account.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	if output.Rejection != nil {
		writeRejection(ctx, output.Rejection)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToUserResponse(output.User))
}

// List handles GET /users requests.
func (c *UserController) List(ctx *gin.Context) {
	output, err := c.listUseCase.Execute(ctx.Request.Context())
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToUserListResponse(output.Users))
}

// Get handles GET /users/:name requests.
func (c *UserController) Get(ctx *gin.Context) {
	output, err := c.getUseCase.Execute(ctx.Request.Context(), account.GetUserInput{Name: ctx.Param("name")})
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

// Update handles PUT /users/:name requests. Only the token owner may
// update the account.
func (c *UserController) Update(ctx *gin.Context) {
	name := ctx.Param("name")
	if !c.authorizeOwner(ctx, name) {
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(ctx, err)
		return
	}
	if !normalizeAccountFields(ctx, &req.Name, &req.Email) {
		return
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), account.UpdateUserInput{
		CurrentName: name,
		NewName:     req.Name,
		NewEmail:    req.Email,
		NewPassword: req.Password,
	})
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

// Delete handles DELETE /users/:name requests. Only the token owner may
// delete the account.
func (c *UserController) Delete(ctx *gin.Context) {
	name := ctx.Param("name")
	if !c.authorizeOwner(ctx, name) {
		return
	}

	output, err := c.deleteUseCase.Execute(ctx.Request.Context(), account.DeleteUserInput{Name: name})
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	if output.Rejection != nil {
		writeRejection(ctx, output.Rejection)
		return
	}

	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "User " + name + " deleted"})
}

// authorizeOwner checks that the account named in the path belongs to the
// caller. It writes the response and returns false when it does not.
func (c *UserController) authorizeOwner(ctx *gin.Context, name string) bool {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		writeRejection(ctx, domainerror.NewAuthError(domainerror.ErrCodeMissingToken, "Unauthorized", domainerror.ErrInvalidToken))
		return false
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), account.GetUserInput{Name: name})
	if err != nil {
		handleError(ctx, c.logger, err)
		return false
	}
	if output.Rejection != nil {
		writeRejection(ctx, output.Rejection)
		return false
	}

	if output.User.ID != userID {
		writeRejection(ctx, domainerror.NewAuthError(
			domainerror.ErrCodeForbidden,
			"You can only modify your own account",
			domainerror.ErrForbidden,
		))
		return false
	}
	return true
}

// normalizeAccountFields trims name and email the way the session flow and
// the CLI do, and rejects a name left blank.
func normalizeAccountFields(ctx *gin.Context, name, email *string) bool {
	*name = valueobject.NormalizeField(*name)
	*email = valueobject.NormalizeField(*email)
	if err := valueobject.ValidateName(*name); err != nil {
		writeRejection(ctx, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidName,
			"Name must be between 1 and 50 characters",
			domainerror.ErrInvalidName,
		))
		return false
	}
	return true
}
