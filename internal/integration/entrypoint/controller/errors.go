// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/integration/entrypoint/dto"
)

// writeRejection answers with the status matching a business rejection.
func writeRejection(ctx *gin.Context, rejection *domainerror.AuthError) {
	ctx.JSON(getStatusCodeForAuthError(rejection.Code), dto.ErrorResponse{
		Error: rejection.Message,
		Code:  string(rejection.Code),
	})
}

// writeInvalidBody answers a request whose body failed binding.
func writeInvalidBody(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Invalid request body",
		Code:    string(domainerror.ErrCodeInvalidInput),
		Details: err.Error(),
	})
}

// handleError maps coded domain errors to their status and everything else
// to 500 without leaking the cause.
func handleError(ctx *gin.Context, logger *slog.Logger, err error) {
	var authErr *domainerror.AuthError
	if errors.As(err, &authErr) {
		writeRejection(ctx, authErr)
		return
	}

	var sessionErr *domainerror.SessionError
	if errors.As(err, &sessionErr) {
		ctx.JSON(getStatusCodeForSessionError(sessionErr.Code), dto.ErrorResponse{
			Error: sessionErr.Message,
			Code:  string(sessionErr.Code),
		})
		return
	}

	logger.Error("Request failed",
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"error", err,
	)
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

// getStatusCodeForAuthError maps auth error codes to HTTP status codes.
func getStatusCodeForAuthError(code domainerror.AuthErrorCode) int {
	switch code {
	case domainerror.ErrCodeUserNotFound,
		domainerror.ErrCodeAccountNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeNameTaken,
		domainerror.ErrCodeEmailTaken,
		domainerror.ErrCodeNameConflict,
		domainerror.ErrCodeEmailConflict:
		return http.StatusConflict
	case domainerror.ErrCodeInvalidInput,
		domainerror.ErrCodeWeakPassword,
		domainerror.ErrCodeInvalidEmail,
		domainerror.ErrCodeInvalidName:
		return http.StatusBadRequest
	case domainerror.ErrCodeWrongPassword,
		domainerror.ErrCodeInvalidToken,
		domainerror.ErrCodeExpiredToken,
		domainerror.ErrCodeMissingToken:
		return http.StatusUnauthorized
	case domainerror.ErrCodeForbidden:
		return http.StatusForbidden
	case domainerror.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// getStatusCodeForSessionError maps session error codes to HTTP status codes.
func getStatusCodeForSessionError(code domainerror.SessionErrorCode) int {
	switch code {
	case domainerror.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
