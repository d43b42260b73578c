package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/usecase/session"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/integration/entrypoint/dto"
)

// SessionController exposes the interactive login flow.
type SessionController struct {
	flow   *session.Flow
	logger *slog.Logger
}

// NewSessionController creates a new session controller instance.
func NewSessionController(flow *session.Flow, logger *slog.Logger) *SessionController {
	return &SessionController{
		flow:   flow,
		logger: logger,
	}
}

// Start handles POST /sessions requests.
func (c *SessionController) Start(ctx *gin.Context) {
	result, err := c.flow.Start(ctx.Request.Context())
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToSessionResponse(result))
}

// Get handles GET /sessions/:id requests.
func (c *SessionController) Get(ctx *gin.Context) {
	c.apply(ctx, c.flow.Get)
}

// Login handles POST /sessions/:id/login requests.
func (c *SessionController) Login(ctx *gin.Context) {
	var req dto.SessionLoginRequest
	if !bindOptional(ctx, &req) {
		return
	}
	c.apply(ctx, func(rctx context.Context, id uuid.UUID) (*session.Result, error) {
		return c.flow.SubmitLogin(rctx, id, req.Name, req.Password)
	})
}

// RequestRecovery handles POST /sessions/:id/recovery requests.
func (c *SessionController) RequestRecovery(ctx *gin.Context) {
	c.apply(ctx, c.flow.RequestRecovery)
}

// CancelRecovery handles DELETE /sessions/:id/recovery requests.
func (c *SessionController) CancelRecovery(ctx *gin.Context) {
	c.apply(ctx, c.flow.CancelRecovery)
}

// RecoveryEmail handles POST /sessions/:id/recovery/email requests.
func (c *SessionController) RecoveryEmail(ctx *gin.Context) {
	var req dto.RecoveryEmailRequest
	if !bindOptional(ctx, &req) {
		return
	}
	c.apply(ctx, func(rctx context.Context, id uuid.UUID) (*session.Result, error) {
		return c.flow.SubmitRecoveryEmail(rctx, id, req.Email)
	})
}

// RecoveryCode handles POST /sessions/:id/recovery/code requests.
func (c *SessionController) RecoveryCode(ctx *gin.Context) {
	var req dto.RecoveryCodeRequest
	if !bindOptional(ctx, &req) {
		return
	}
	c.apply(ctx, func(rctx context.Context, id uuid.UUID) (*session.Result, error) {
		return c.flow.SubmitRecoveryCode(rctx, id, req.Code)
	})
}

// NewPassword handles POST /sessions/:id/recovery/password requests.
func (c *SessionController) NewPassword(ctx *gin.Context) {
	var req dto.NewPasswordRequest
	if !bindOptional(ctx, &req) {
		return
	}
	c.apply(ctx, func(rctx context.Context, id uuid.UUID) (*session.Result, error) {
		return c.flow.SubmitNewPassword(rctx, id, req.Password)
	})
}

// Register handles POST /sessions/:id/registration requests.
func (c *SessionController) Register(ctx *gin.Context) {
	var req dto.RegistrationRequest
	if !bindOptional(ctx, &req) {
		return
	}
	c.apply(ctx, func(rctx context.Context, id uuid.UUID) (*session.Result, error) {
		return c.flow.SubmitRegistration(rctx, id, req.Email, req.Name, req.Password)
	})
}

// CancelRegistration handles DELETE /sessions/:id/registration requests.
func (c *SessionController) CancelRegistration(ctx *gin.Context) {
	c.apply(ctx, c.flow.CancelRegistration)
}

// Logout handles POST /sessions/:id/logout requests.
func (c *SessionController) Logout(ctx *gin.Context) {
	c.apply(ctx, c.flow.Logout)
}

func (c *SessionController) apply(ctx *gin.Context, op func(context.Context, uuid.UUID) (*session.Result, error)) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "session not found or expired",
			Code:  string(domainerror.ErrCodeSessionNotFound),
		})
		return
	}

	result, err := op(ctx.Request.Context(), id)
	if err != nil {
		handleError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToSessionResponse(result))
}

// bindOptional binds a JSON body where an empty body means empty fields.
func bindOptional(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidBody(ctx, err)
		return false
	}
	return true
}
