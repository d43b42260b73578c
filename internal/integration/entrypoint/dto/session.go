package dto

import (
	"github.com/user-accounts/backend/internal/application/usecase/session"
)

// SessionLoginRequest carries the login screen fields. Empty fields leave
// the session unchanged.
type SessionLoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RecoveryEmailRequest carries the recovery email field.
type RecoveryEmailRequest struct {
	Email string `json:"email"`
}

// RecoveryCodeRequest carries the recovery code field.
type RecoveryCodeRequest struct {
	Code string `json:"code"`
}

// NewPasswordRequest carries the new password field.
type NewPasswordRequest struct {
	Password string `json:"password"`
}

// RegistrationRequest carries the registration fields. Any prefix of
// email, name and password may be sent.
type RegistrationRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SessionResponse is the client view of a flow session.
type SessionResponse struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	Authenticated   bool   `json:"authenticated"`
	ResetInProgress bool   `json:"reset_in_progress"`
	UserName        string `json:"user_name,omitempty"`
	Outcome         string `json:"outcome"`
	Message         string `json:"message,omitempty"`
	NextField       string `json:"next_field,omitempty"`
	RecoveryCode    string `json:"recovery_code,omitempty"`
}

// ToSessionResponse converts a flow result to a SessionResponse.
func ToSessionResponse(r *session.Result) SessionResponse {
	return SessionResponse{
		ID:              r.Session.ID.String(),
		State:           string(r.State),
		Authenticated:   r.Session.Authenticated,
		ResetInProgress: r.Session.ResetInProgress,
		UserName:        r.Session.UserName,
		Outcome:         string(r.Outcome),
		Message:         r.Message,
		NextField:       r.NextField,
		RecoveryCode:    r.RecoveryCode,
	}
}
