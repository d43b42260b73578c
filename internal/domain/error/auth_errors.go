// Package error defines domain-specific errors for the user accounts service.
package error

import "errors"

// Account and authentication domain errors.
var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned by the store when a unique index rejects a write.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrNameTaken is returned when registering with a name already in use.
	ErrNameTaken = errors.New("name already taken")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already taken")

	// ErrNameConflict is returned when renaming onto another user's name.
	ErrNameConflict = errors.New("new name already in use")

	// ErrEmailConflict is returned when changing the email to another user's email.
	ErrEmailConflict = errors.New("new email already in use")

	// ErrWrongPassword is returned when the password does not match the stored digest.
	ErrWrongPassword = errors.New("wrong password")

	// ErrWeakPassword is returned when the password fails the length or strength gate.
	ErrWeakPassword = errors.New("password does not meet minimum requirements")

	// ErrInvalidEmail is returned when the email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidName is returned when the name is empty or too long.
	ErrInvalidName = errors.New("name must be between 1 and 50 characters")

	// ErrInvalidToken is returned when a token is invalid or malformed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrForbidden is returned when the caller acts on another user's account.
	ErrForbidden = errors.New("operation not allowed for this user")
)

// AuthErrorCode defines error codes for account and authentication errors.
// Format: AUTH-XXYYYY where XX is category and YYYY is specific error.
type AuthErrorCode string

const (
	// Registration errors (01XXXX)
	ErrCodeInvalidInput AuthErrorCode = "AUTH-010001"
	ErrCodeNameTaken    AuthErrorCode = "AUTH-010002"
	ErrCodeEmailTaken   AuthErrorCode = "AUTH-010003"
	ErrCodeWeakPassword AuthErrorCode = "AUTH-010004"
	ErrCodeInvalidEmail AuthErrorCode = "AUTH-010005"
	ErrCodeInvalidName  AuthErrorCode = "AUTH-010006"

	// Login errors (02XXXX)
	ErrCodeUserNotFound  AuthErrorCode = "AUTH-020001"
	ErrCodeWrongPassword AuthErrorCode = "AUTH-020002"
	ErrCodeRateLimited   AuthErrorCode = "AUTH-020003"

	// Token errors (03XXXX)
	ErrCodeInvalidToken AuthErrorCode = "AUTH-030001"
	ErrCodeExpiredToken AuthErrorCode = "AUTH-030002"
	ErrCodeMissingToken AuthErrorCode = "AUTH-030003"

	// Update and delete errors (04XXXX)
	ErrCodeAccountNotFound AuthErrorCode = "AUTH-040001"
	ErrCodeNameConflict    AuthErrorCode = "AUTH-040002"
	ErrCodeEmailConflict   AuthErrorCode = "AUTH-040003"
	ErrCodeForbidden       AuthErrorCode = "AUTH-040004"
)

// AuthError represents an authentication error with code and message.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError with the given code and message.
func NewAuthError(code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
