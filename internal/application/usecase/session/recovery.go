package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

// RequestRecovery starts the forgotten password path after a failed prompt.
func (f *Flow) RequestRecovery(ctx context.Context, id uuid.UUID) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStatePasswordPromptFailed {
		return nil, invalidTransition("request recovery", s)
	}

	from := s.DisplayState()
	s.State = entity.SessionStateAwaitingRecoveryEmail
	s.ResetInProgress = true

	return f.commit(ctx, s, from, OutcomeRecoveryRequested, "Enter the email of your account")
}

// CancelRecovery abandons the recovery path and returns to the login screen.
func (f *Flow) CancelRecovery(ctx context.Context, id uuid.UUID) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.State.IsRecovery() {
		return nil, invalidTransition("cancel recovery", s)
	}

	from := s.DisplayState()
	s.ClearRecovery()
	s.State = entity.SessionStateAnonymousLogin

	return f.commit(ctx, s, from, OutcomeRecoveryCancelled, "")
}

// SubmitRecoveryEmail issues a recovery code for the account using email and
// sends it by mail. Only the code's hash stays in the session.
func (f *Flow) SubmitRecoveryEmail(ctx context.Context, id uuid.UUID, email string) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStateAwaitingRecoveryEmail {
		return nil, invalidTransition("submit recovery email", s)
	}

	email = valueobject.NormalizeField(email)
	if email == "" {
		return f.idle(s, "email"), nil
	}

	from := s.DisplayState()
	if err := valueobject.ValidateEmail(email); err != nil {
		return f.commit(ctx, s, from, OutcomeInvalidEmail, domainerror.ErrInvalidEmail.Error())
	}

	user, err := f.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return f.commit(ctx, s, from, OutcomeEmailNotFound, domainerror.ErrRecoveryEmailNotFound.Error())
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	code, err := f.codes.Generate()
	if err != nil {
		return nil, err
	}

	expiresAt := f.clock.Now().Add(f.cfg.RecoveryCodeTTL)
	if err := f.emailService.QueueRecoveryCodeEmail(ctx, adapter.QueueRecoveryCodeInput{
		UserEmail: user.Email,
		UserName:  user.Name,
		Code:      code,
		ExpiresIn: formatTTL(f.cfg.RecoveryCodeTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to queue recovery email: %w", err)
	}

	s.RecoveryEmail = user.Email
	s.RecoveryCodeHash = f.codes.Hash(code)
	s.RecoveryCodeExpiresAt = &expiresAt
	s.State = entity.SessionStateAwaitingRecoveryCode

	result, err := f.commit(ctx, s, from, OutcomeCodeSent, "A recovery code was sent to your email")
	if err != nil {
		return nil, err
	}
	if f.cfg.ExposeRecoveryCode {
		result.RecoveryCode = code
	}
	return result, nil
}

// SubmitRecoveryCode checks the code. A matching code is consumed; an
// expired one, or too many wrong ones, send the user back to enter their
// email again.
func (f *Flow) SubmitRecoveryCode(ctx context.Context, id uuid.UUID, code string) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStateAwaitingRecoveryCode {
		return nil, invalidTransition("submit recovery code", s)
	}

	code = valueobject.NormalizeField(code)
	if code == "" {
		return f.idle(s, "code"), nil
	}

	from := s.DisplayState()
	if s.RecoveryCodeExpired(f.clock.Now()) {
		s.ClearRecovery()
		s.ResetInProgress = true
		s.State = entity.SessionStateAwaitingRecoveryEmail
		return f.commit(ctx, s, from, OutcomeCodeExpired, domainerror.ErrRecoveryCodeExpired.Error())
	}

	if !f.codes.Matches(code, s.RecoveryCodeHash) {
		s.RecoveryAttempts++
		if f.cfg.MaxRecoveryAttempts > 0 && s.RecoveryAttempts >= f.cfg.MaxRecoveryAttempts {
			f.logger.Warn("Recovery code attempts exhausted", "session_id", s.ID, "attempts", s.RecoveryAttempts)
			s.ClearRecovery()
			s.ResetInProgress = true
			s.State = entity.SessionStateAwaitingRecoveryEmail
			return f.commit(ctx, s, from, OutcomeTooManyAttempts, domainerror.ErrRecoveryAttemptsExceeded.Error())
		}
		return f.commit(ctx, s, from, OutcomeCodeMismatch, domainerror.ErrRecoveryCodeMismatch.Error())
	}

	s.RecoveryCodeHash = ""
	s.RecoveryCodeExpiresAt = nil
	s.State = entity.SessionStateAwaitingNewPassword

	return f.commit(ctx, s, from, OutcomeCodeAccepted, "Choose a new password")
}

// SubmitNewPassword resets the password of the recovered account and forces
// a fresh login.
func (f *Flow) SubmitNewPassword(ctx context.Context, id uuid.UUID, password string) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStateAwaitingNewPassword {
		return nil, invalidTransition("submit new password", s)
	}

	if password == "" {
		return f.idle(s, "password"), nil
	}

	from := s.DisplayState()
	if err := f.passwordService.ValidatePasswordStrength(password); err != nil {
		return f.commit(ctx, s, from, Outcome(valueobject.UpdateOutcomeWeakPassword), rejectionMessage(err))
	}

	user, err := f.userRepo.FindByEmail(ctx, s.RecoveryEmail)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return f.abandonRecovery(ctx, s, from)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	out, err := f.update.Execute(ctx, account.UpdateUserInput{
		CurrentName: user.Name,
		NewName:     user.Name,
		NewEmail:    user.Email,
		NewPassword: password,
	})
	if err != nil {
		return nil, err
	}

	switch out.Outcome {
	case valueobject.UpdateOutcomeUpdated:
		s.ClearRecovery()
		s.State = entity.SessionStateAnonymousLogin
		f.logger.Log(ctx, adapter.LevelSuccess, "Password reset through recovery", "session_id", s.ID, "user_id", user.ID)
		return f.commit(ctx, s, from, OutcomePasswordReset, "Password updated, please log in")
	case valueobject.UpdateOutcomeNotFound:
		return f.abandonRecovery(ctx, s, from)
	default:
		return f.commit(ctx, s, from, Outcome(out.Outcome), out.Rejection.Message)
	}
}

// abandonRecovery handles an account deleted while its recovery was running.
func (f *Flow) abandonRecovery(ctx context.Context, s *entity.AuthSession, from entity.SessionState) (*Result, error) {
	s.ClearRecovery()
	s.State = entity.SessionStateAnonymousLogin
	return f.commit(ctx, s, from, Outcome(valueobject.UpdateOutcomeNotFound), domainerror.ErrUserNotFound.Error())
}

func rejectionMessage(err error) string {
	var authErr *domainerror.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return err.Error()
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		return fmt.Sprintf("%d hour(s)", int(ttl.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
