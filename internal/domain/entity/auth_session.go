package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is a screen of the interactive login flow.
type SessionState string

const (
	SessionStateAnonymousLogin        SessionState = "anonymous_login"
	SessionStatePasswordPromptFailed  SessionState = "password_prompt_failed"
	SessionStateAwaitingRecoveryEmail SessionState = "awaiting_recovery_email"
	SessionStateAwaitingRecoveryCode  SessionState = "awaiting_recovery_code"
	SessionStateAwaitingNewPassword   SessionState = "awaiting_new_password"
	SessionStateRegistering           SessionState = "registering"
	SessionStateAuthenticated         SessionState = "authenticated"
)

// IsRecovery reports whether the state belongs to the password recovery path.
func (s SessionState) IsRecovery() bool {
	switch s {
	case SessionStateAwaitingRecoveryEmail, SessionStateAwaitingRecoveryCode, SessionStateAwaitingNewPassword:
		return true
	}
	return false
}

// RegistrationDraft holds the registration fields accepted so far.
type RegistrationDraft struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// IsEmpty reports whether no field has been accepted yet.
func (d RegistrationDraft) IsEmpty() bool {
	return d.Email == "" && d.Name == ""
}

// AuthSession is the transient state of one interactive client.
// Only a hash of the recovery code is kept.
type AuthSession struct {
	ID                    uuid.UUID         `json:"id"`
	State                 SessionState      `json:"state"`
	Authenticated         bool              `json:"authenticated"`
	UserName              string            `json:"user_name,omitempty"`
	ResetInProgress       bool              `json:"reset_in_progress"`
	RecoveryEmail         string            `json:"recovery_email,omitempty"`
	RecoveryCodeHash      string            `json:"recovery_code_hash,omitempty"`
	RecoveryCodeExpiresAt *time.Time        `json:"recovery_code_expires_at,omitempty"`
	RecoveryAttempts      int               `json:"recovery_attempts,omitempty"`
	Registration          RegistrationDraft `json:"registration"`
	Message               string            `json:"message,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// NewAuthSession creates a session on the login screen.
func NewAuthSession(now time.Time) *AuthSession {
	return &AuthSession{
		ID:        uuid.New(),
		State:     SessionStateAnonymousLogin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DisplayState is the state shown to the client. An open registration draft
// takes precedence over the login screens, but never over an authenticated session.
func (s *AuthSession) DisplayState() SessionState {
	if !s.Registration.IsEmpty() && !s.Authenticated {
		return SessionStateRegistering
	}
	return s.State
}

// ClearRecovery drops every recovery flag.
func (s *AuthSession) ClearRecovery() {
	s.ResetInProgress = false
	s.RecoveryEmail = ""
	s.RecoveryCodeHash = ""
	s.RecoveryCodeExpiresAt = nil
	s.RecoveryAttempts = 0
}

// RecoveryCodeExpired reports whether the stored recovery code is past its expiry.
func (s *AuthSession) RecoveryCodeExpired(now time.Time) bool {
	return s.RecoveryCodeExpiresAt != nil && !now.Before(*s.RecoveryCodeExpiresAt)
}
