package error

import "errors"

// Session flow errors.
var (
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned when an action is not accepted in the current state.
	ErrInvalidTransition = errors.New("action not allowed in current session state")

	// ErrRecoveryEmailNotFound is returned when no account uses the recovery email.
	ErrRecoveryEmailNotFound = errors.New("no account registered with this email")

	// ErrRecoveryCodeMismatch is returned when the submitted code differs from the issued one.
	ErrRecoveryCodeMismatch = errors.New("recovery code does not match")

	// ErrRecoveryCodeExpired is returned when the issued code is past its expiry.
	ErrRecoveryCodeExpired = errors.New("recovery code has expired")

	// ErrRecoveryAttemptsExceeded is returned when too many wrong codes were submitted.
	ErrRecoveryAttemptsExceeded = errors.New("too many wrong recovery codes, request a new one")
)

// SessionErrorCode defines error codes for session flow errors.
// Format: SESSION-XXYYYY where XX is category and YYYY is specific error.
type SessionErrorCode string

const (
	// Lookup errors (01XXXX)
	ErrCodeSessionNotFound SessionErrorCode = "SESSION-010001"

	// Transition errors (02XXXX)
	ErrCodeInvalidTransition SessionErrorCode = "SESSION-020001"
)

// SessionError represents a session flow error with code and message.
type SessionError struct {
	Code    SessionErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError with the given code and message.
func NewSessionError(code SessionErrorCode, message string, err error) *SessionError {
	return &SessionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
