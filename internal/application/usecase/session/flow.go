// Package session drives the interactive login, registration and password
// recovery screens as a state machine over stored sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/application/usecase/auth"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

// Outcome names what happened to a submission.
type Outcome string

// Outcomes specific to the flow. Credential and account outcomes are reported
// with their own values.
const (
	OutcomeStarted               Outcome = "started"
	OutcomeIdle                  Outcome = "idle"
	OutcomePending               Outcome = "pending"
	OutcomeRecoveryRequested     Outcome = "recovery_requested"
	OutcomeRecoveryCancelled     Outcome = "recovery_cancelled"
	OutcomeRegistrationCancelled Outcome = "registration_cancelled"
	OutcomeInvalidEmail          Outcome = "invalid_email"
	OutcomeInvalidName           Outcome = "invalid_name"
	OutcomeEmailNotFound         Outcome = "email_not_found"
	OutcomeCodeSent              Outcome = "code_sent"
	OutcomeCodeAccepted          Outcome = "code_accepted"
	OutcomeCodeMismatch          Outcome = "code_mismatch"
	OutcomeCodeExpired           Outcome = "code_expired"
	OutcomeTooManyAttempts       Outcome = "too_many_attempts"
	OutcomePasswordReset         Outcome = "password_reset"
	OutcomeLoggedOut             Outcome = "logged_out"
)

// Result is the session after a submission, plus what to show the user.
// RecoveryCode is only set when codes are exposed for development.
type Result struct {
	Session      *entity.AuthSession
	State        entity.SessionState
	Outcome      Outcome
	Message      string
	NextField    string
	RecoveryCode string
}

// Config holds flow settings.
type Config struct {
	RecoveryCodeTTL time.Duration
	// MaxRecoveryAttempts is the number of wrong codes accepted before the
	// code is discarded. Zero means unlimited.
	MaxRecoveryAttempts int
	ExposeRecoveryCode  bool
}

// Flow is the session state machine. Every operation loads the session,
// applies at most one transition and saves it.
type Flow struct {
	store           adapter.SessionStore
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	codes           adapter.RecoveryCodeService
	emailService    adapter.EmailService
	authenticate    *auth.AuthenticateUserUseCase
	register        *account.RegisterUserUseCase
	update          *account.UpdateUserUseCase
	clock           adapter.Clock
	metrics         adapter.MetricsRecorder
	logger          *slog.Logger
	cfg             Config
}

// Dependencies groups the collaborators of a Flow.
type Dependencies struct {
	Store           adapter.SessionStore
	UserRepo        adapter.UserRepository
	PasswordService adapter.PasswordService
	Codes           adapter.RecoveryCodeService
	EmailService    adapter.EmailService
	Authenticate    *auth.AuthenticateUserUseCase
	Register        *account.RegisterUserUseCase
	Update          *account.UpdateUserUseCase
	Clock           adapter.Clock
	Metrics         adapter.MetricsRecorder
	Logger          *slog.Logger
}

// NewFlow creates a new Flow.
func NewFlow(deps Dependencies, cfg Config) *Flow {
	return &Flow{
		store:           deps.Store,
		userRepo:        deps.UserRepo,
		passwordService: deps.PasswordService,
		codes:           deps.Codes,
		emailService:    deps.EmailService,
		authenticate:    deps.Authenticate,
		register:        deps.Register,
		update:          deps.Update,
		clock:           deps.Clock,
		metrics:         deps.Metrics,
		logger:          deps.Logger.With("usecase", "session_flow"),
		cfg:             cfg,
	}
}

// Start opens a new session on the login screen.
func (f *Flow) Start(ctx context.Context) (*Result, error) {
	s := entity.NewAuthSession(f.clock.Now())
	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}

	f.metrics.RecordSessionTransition("none", string(s.State))
	f.logger.Info("Session started", "session_id", s.ID)

	return f.result(s, OutcomeStarted, ""), nil
}

// Get returns the session without changing it.
func (f *Flow) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.result(s, OutcomeIdle, s.Message), nil
}

func (f *Flow) load(ctx context.Context, id uuid.UUID) (*entity.AuthSession, error) {
	s, err := f.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domainerror.ErrSessionNotFound) {
			return nil, domainerror.NewSessionError(
				domainerror.ErrCodeSessionNotFound,
				"session not found or expired",
				domainerror.ErrSessionNotFound,
			)
		}
		return nil, err
	}
	return s, nil
}

// commit saves the session and records the visible state change.
func (f *Flow) commit(ctx context.Context, s *entity.AuthSession, from entity.SessionState, outcome Outcome, message string) (*Result, error) {
	s.Message = message
	s.UpdatedAt = f.clock.Now()
	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}

	to := s.DisplayState()
	if from != to {
		f.metrics.RecordSessionTransition(string(from), string(to))
	}
	f.logger.Info("Session updated",
		"session_id", s.ID,
		"from", from,
		"to", to,
		"outcome", outcome,
	)

	return f.result(s, outcome, message), nil
}

func (f *Flow) result(s *entity.AuthSession, outcome Outcome, message string) *Result {
	return &Result{
		Session: s,
		State:   s.DisplayState(),
		Outcome: outcome,
		Message: message,
	}
}

// idle answers an empty submission without touching the session.
func (f *Flow) idle(s *entity.AuthSession, nextField string) *Result {
	r := f.result(s, OutcomeIdle, "")
	r.NextField = nextField
	return r
}

func invalidTransition(action string, s *entity.AuthSession) error {
	return domainerror.NewSessionError(
		domainerror.ErrCodeInvalidTransition,
		fmt.Sprintf("cannot %s while in state %s", action, s.State),
		domainerror.ErrInvalidTransition,
	)
}
