package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/application/usecase/auth"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/infra/observability"
	"github.com/user-accounts/backend/internal/integration/adapters"
	"github.com/user-accounts/backend/internal/integration/cache"
	"github.com/user-accounts/backend/internal/integration/persistence"
	tu "github.com/user-accounts/backend/internal/testutil"
)

type flowFixture struct {
	flow     *Flow
	repo     adapter.UserRepository
	password adapter.PasswordService
	outbox   *tu.Outbox
	clock    *tu.Clock
	metrics  *observability.Metrics
}

func newFlowFixture(t *testing.T, cfg Config) *flowFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := persistence.NewUserRepository(tu.NewDB(t))
	password := adapters.NewPasswordService(adapters.HashSchemeSHA256, valueobject.DefaultPasswordPolicy())
	outbox := &tu.Outbox{}
	clock := tu.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics()
	logger := tu.Logger()

	flow := NewFlow(Dependencies{
		Store:           cache.NewSessionStore(client, time.Hour),
		UserRepo:        repo,
		PasswordService: password,
		Codes:           adapters.NewRecoveryCodeService(6),
		EmailService:    outbox,
		Authenticate:    auth.NewAuthenticateUserUseCase(repo, password, metrics, logger),
		Register:        account.NewRegisterUserUseCase(repo, password, outbox, metrics, clock, logger),
		Update:          account.NewUpdateUserUseCase(repo, password, metrics, clock, logger),
		Clock:           clock,
		Metrics:         metrics,
		Logger:          logger,
	}, cfg)

	return &flowFixture{
		flow:     flow,
		repo:     repo,
		password: password,
		outbox:   outbox,
		clock:    clock,
		metrics:  metrics,
	}
}

func defaultConfig() Config {
	return Config{RecoveryCodeTTL: 15 * time.Minute}
}

func (f *flowFixture) addUser(t *testing.T, name, email, password string) *entity.User {
	t.Helper()
	digest, err := f.password.HashPassword(password)
	require.NoError(t, err)
	user := entity.NewUser(name, email, digest, f.clock.Now())
	require.NoError(t, f.repo.Create(context.Background(), user))
	return user
}

func (f *flowFixture) start(t *testing.T) uuid.UUID {
	t.Helper()
	res, err := f.flow.Start(context.Background())
	require.NoError(t, err)
	return res.Session.ID
}

// toRecoveryCode walks a fresh session up to the code prompt for email.
func (f *flowFixture) toRecoveryCode(t *testing.T, name, email string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := f.start(t)

	res, err := f.flow.SubmitLogin(ctx, id, name, "wrong-password")
	require.NoError(t, err)
	require.Equal(t, entity.SessionStatePasswordPromptFailed, res.State)

	_, err = f.flow.RequestRecovery(ctx, id)
	require.NoError(t, err)

	res, err = f.flow.SubmitRecoveryEmail(ctx, id, email)
	require.NoError(t, err)
	require.Equal(t, OutcomeCodeSent, res.Outcome)
	return id
}

func assertInvalidTransition(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerror.ErrInvalidTransition)
	var sessionErr *domainerror.SessionError
	require.True(t, errors.As(err, &sessionErr))
	assert.Equal(t, domainerror.ErrCodeInvalidTransition, sessionErr.Code)
}

func TestFlowStart(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())

	res, err := f.flow.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.Equal(t, OutcomeStarted, res.Outcome)
	assert.False(t, res.Session.Authenticated)

	loaded, err := f.flow.Get(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, loaded.Session.ID)
}

func TestFlowUnknownSession(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())

	_, err := f.flow.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerror.ErrSessionNotFound)

	_, err = f.flow.SubmitLogin(context.Background(), uuid.New(), "alice", "Secure1!")
	assert.ErrorIs(t, err, domainerror.ErrSessionNotFound)
}

func TestFlowSubmitLogin(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		expected entity.SessionState
		outcome  Outcome
	}{
		{
			name:     "correct credentials authenticate",
			user:     "alice",
			password: "Secure1!",
			expected: entity.SessionStateAuthenticated,
			outcome:  Outcome(valueobject.AuthOutcomeAuthenticated),
		},
		{
			name:     "wrong password fails the prompt",
			user:     "alice",
			password: "Secure2!",
			expected: entity.SessionStatePasswordPromptFailed,
			outcome:  Outcome(valueobject.AuthOutcomeWrongPassword),
		},
		{
			name:     "unknown user stays on login",
			user:     "nobody",
			password: "Secure1!",
			expected: entity.SessionStateAnonymousLogin,
			outcome:  Outcome(valueobject.AuthOutcomeUserNotFound),
		},
		{
			name:     "empty input is idle",
			user:     "",
			password: "",
			expected: entity.SessionStateAnonymousLogin,
			outcome:  OutcomeIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlowFixture(t, defaultConfig())
			f.addUser(t, "alice", "alice@x.com", "Secure1!")
			id := f.start(t)

			res, err := f.flow.SubmitLogin(context.Background(), id, tt.user, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.State)
			assert.Equal(t, tt.outcome, res.Outcome)

			stored, err := f.flow.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, stored.State)
		})
	}
}

func TestFlowLoginAfterFailedPrompt(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "alice", "alice@x.com", "Secure1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.SubmitLogin(ctx, id, "alice", "nope")
	require.NoError(t, err)

	res, err := f.flow.SubmitLogin(ctx, id, "alice", "Secure1!")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAuthenticated, res.State)
	assert.True(t, res.Session.Authenticated)
	assert.Equal(t, "alice", res.Session.UserName)

	_, err = f.flow.SubmitLogin(ctx, id, "alice", "Secure1!")
	assertInvalidTransition(t, err)
}

func TestFlowLogout(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "alice", "alice@x.com", "Secure1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.Logout(ctx, id)
	assertInvalidTransition(t, err)

	_, err = f.flow.SubmitLogin(ctx, id, "alice", "Secure1!")
	require.NoError(t, err)

	res, err := f.flow.Logout(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.Equal(t, OutcomeLoggedOut, res.Outcome)
	assert.False(t, res.Session.Authenticated)
	assert.Empty(t, res.Session.UserName)
	assert.False(t, res.Session.ResetInProgress)
	assert.NotEqual(t, id, res.Session.ID)

	_, err = f.flow.Get(ctx, id)
	assert.ErrorIs(t, err, domainerror.ErrSessionNotFound)

	fresh, err := f.flow.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAnonymousLogin, fresh.State)
}

func TestFlowRecoveryRequiresFailedPrompt(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.RequestRecovery(ctx, id)
	assertInvalidTransition(t, err)

	_, err = f.flow.SubmitRecoveryEmail(ctx, id, "carol@x.com")
	assertInvalidTransition(t, err)

	_, err = f.flow.SubmitRecoveryCode(ctx, id, "123456")
	assertInvalidTransition(t, err)

	_, err = f.flow.SubmitNewPassword(ctx, id, "Brand1New!")
	assertInvalidTransition(t, err)

	_, err = f.flow.CancelRecovery(ctx, id)
	assertInvalidTransition(t, err)

	stored, err := f.flow.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAnonymousLogin, stored.State)
}

func TestFlowPasswordReset(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.start(t)

	res, err := f.flow.SubmitLogin(ctx, id, "carol", "bad")
	require.NoError(t, err)
	require.Equal(t, entity.SessionStatePasswordPromptFailed, res.State)

	res, err = f.flow.RequestRecovery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, res.State)
	assert.True(t, res.Session.ResetInProgress)

	res, err = f.flow.SubmitRecoveryEmail(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, res.State)

	res, err = f.flow.SubmitRecoveryEmail(ctx, id, "unknown@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmailNotFound, res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, res.State)

	res, err = f.flow.SubmitRecoveryEmail(ctx, id, "carol@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryCode, res.State)
	assert.Empty(t, res.RecoveryCode)
	assert.NotEmpty(t, res.Session.RecoveryCodeHash)

	code := f.outbox.LastRecoveryCode("carol@x.com")
	require.Len(t, code, 6)
	assert.NotEqual(t, code, res.Session.RecoveryCodeHash)

	res, err = f.flow.SubmitRecoveryCode(ctx, id, wrongCode(code))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCodeMismatch, res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryCode, res.State)

	res, err = f.flow.SubmitRecoveryCode(ctx, id, code)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAwaitingNewPassword, res.State)

	res, err = f.flow.SubmitNewPassword(ctx, id, "weak")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.UpdateOutcomeWeakPassword), res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingNewPassword, res.State)

	res, err = f.flow.SubmitNewPassword(ctx, id, "NewPass1!")
	require.NoError(t, err)
	assert.Equal(t, OutcomePasswordReset, res.Outcome)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.False(t, res.Session.ResetInProgress)
	assert.Empty(t, res.Session.RecoveryEmail)

	res, err = f.flow.SubmitLogin(ctx, id, "carol", "OldPass1!")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.AuthOutcomeWrongPassword), res.Outcome)

	res, err = f.flow.SubmitLogin(ctx, id, "carol", "NewPass1!")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAuthenticated, res.State)
}

func TestFlowRecoveryCodeExpires(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.toRecoveryCode(t, "carol", "carol@x.com")
	code := f.outbox.LastRecoveryCode("carol@x.com")

	f.clock.Advance(15 * time.Minute)

	res, err := f.flow.SubmitRecoveryCode(ctx, id, code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCodeExpired, res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, res.State)
	assert.Empty(t, res.Session.RecoveryCodeHash)
	assert.Nil(t, res.Session.RecoveryCodeExpiresAt)
	assert.True(t, res.Session.ResetInProgress)
}

func TestFlowRecoveryAttemptsExhausted(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxRecoveryAttempts = 3
	f := newFlowFixture(t, cfg)
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.toRecoveryCode(t, "carol", "carol@x.com")
	code := f.outbox.LastRecoveryCode("carol@x.com")

	for i := 1; i < cfg.MaxRecoveryAttempts; i++ {
		res, err := f.flow.SubmitRecoveryCode(ctx, id, wrongCode(code))
		require.NoError(t, err)
		assert.Equal(t, OutcomeCodeMismatch, res.Outcome)
		assert.Equal(t, i, res.Session.RecoveryAttempts)
	}

	res, err := f.flow.SubmitRecoveryCode(ctx, id, wrongCode(code))
	require.NoError(t, err)
	assert.Equal(t, OutcomeTooManyAttempts, res.Outcome)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, res.State)
	assert.Empty(t, res.Session.RecoveryCodeHash)
	assert.Zero(t, res.Session.RecoveryAttempts)
	assert.True(t, res.Session.ResetInProgress)

	_, err = f.flow.SubmitRecoveryCode(ctx, id, code)
	assertInvalidTransition(t, err)

	res, err = f.flow.SubmitRecoveryEmail(ctx, id, "carol@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCodeSent, res.Outcome)
	assert.NotEqual(t, "", f.outbox.LastRecoveryCode("carol@x.com"))
}

func TestFlowRecoveryCodeIsSingleUse(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.toRecoveryCode(t, "carol", "carol@x.com")

	res, err := f.flow.SubmitRecoveryCode(ctx, id, f.outbox.LastRecoveryCode("carol@x.com"))
	require.NoError(t, err)
	assert.Empty(t, res.Session.RecoveryCodeHash)

	_, err = f.flow.SubmitRecoveryCode(ctx, id, f.outbox.LastRecoveryCode("carol@x.com"))
	assertInvalidTransition(t, err)
}

func TestFlowExposeRecoveryCode(t *testing.T) {
	cfg := defaultConfig()
	cfg.ExposeRecoveryCode = true
	f := newFlowFixture(t, cfg)
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.SubmitLogin(ctx, id, "carol", "bad")
	require.NoError(t, err)
	_, err = f.flow.RequestRecovery(ctx, id)
	require.NoError(t, err)

	res, err := f.flow.SubmitRecoveryEmail(ctx, id, "carol@x.com")
	require.NoError(t, err)
	assert.Equal(t, f.outbox.LastRecoveryCode("carol@x.com"), res.RecoveryCode)
}

func TestFlowRecoveryEmailQueueFailure(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.SubmitLogin(ctx, id, "carol", "bad")
	require.NoError(t, err)
	_, err = f.flow.RequestRecovery(ctx, id)
	require.NoError(t, err)

	f.outbox.Err = errors.New("queue down")
	_, err = f.flow.SubmitRecoveryEmail(ctx, id, "carol@x.com")
	require.Error(t, err)

	stored, err := f.flow.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAwaitingRecoveryEmail, stored.State)
	assert.Empty(t, stored.Session.RecoveryCodeHash)
}

func TestFlowCancelRecovery(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.toRecoveryCode(t, "carol", "carol@x.com")

	res, err := f.flow.CancelRecovery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.False(t, res.Session.ResetInProgress)
	assert.Empty(t, res.Session.RecoveryCodeHash)
}

func TestFlowRecoveryUserDeleted(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "carol", "carol@x.com", "OldPass1!")
	ctx := context.Background()
	id := f.toRecoveryCode(t, "carol", "carol@x.com")

	_, err := f.flow.SubmitRecoveryCode(ctx, id, f.outbox.LastRecoveryCode("carol@x.com"))
	require.NoError(t, err)

	require.NoError(t, f.repo.DeleteByName(ctx, "carol"))

	res, err := f.flow.SubmitNewPassword(ctx, id, "NewPass1!")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.UpdateOutcomeNotFound), res.Outcome)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.False(t, res.Session.ResetInProgress)
}

func TestFlowRegistration(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "alice", "alice@x.com", "Secure1!")
	ctx := context.Background()
	id := f.start(t)

	res, err := f.flow.SubmitRegistration(ctx, id, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, res.Outcome)
	assert.Equal(t, "email", res.NextField)

	res, err = f.flow.SubmitRegistration(ctx, id, "not-an-email", "", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidEmail, res.Outcome)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)

	res, err = f.flow.SubmitRegistration(ctx, id, "alice@x.com", "", "")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.RegisterOutcomeEmailTaken), res.Outcome)

	res, err = f.flow.SubmitRegistration(ctx, id, "dave@x.com", "", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, "name", res.NextField)
	assert.Equal(t, entity.SessionStateRegistering, res.State)

	res, err = f.flow.SubmitRegistration(ctx, id, "", "alice", "")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.RegisterOutcomeNameTaken), res.Outcome)
	assert.Equal(t, "dave@x.com", res.Session.Registration.Email)

	res, err = f.flow.SubmitRegistration(ctx, id, "", "dave", "")
	require.NoError(t, err)
	assert.Equal(t, "password", res.NextField)

	res, err = f.flow.SubmitRegistration(ctx, id, "", "", "short")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.RegisterOutcomeWeakPassword), res.Outcome)
	assert.Equal(t, entity.SessionStateRegistering, res.State)

	res, err = f.flow.SubmitRegistration(ctx, id, "", "", "Secure1!")
	require.NoError(t, err)
	assert.Equal(t, Outcome(valueobject.RegisterOutcomeCreated), res.Outcome)
	assert.Equal(t, entity.SessionStateAnonymousLogin, res.State)
	assert.True(t, res.Session.Registration.IsEmpty())

	created, err := f.repo.FindByName(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "dave@x.com", created.Email)
	assert.Len(t, f.outbox.Welcomes, 1)
}

func TestFlowRegistrationKeepsLoginState(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "alice", "alice@x.com", "Secure1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.SubmitLogin(ctx, id, "alice", "bad")
	require.NoError(t, err)

	res, err := f.flow.SubmitRegistration(ctx, id, "dave@x.com", "dave", "")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStateRegistering, res.State)
	assert.Equal(t, entity.SessionStatePasswordPromptFailed, res.Session.State)

	res, err = f.flow.CancelRegistration(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatePasswordPromptFailed, res.State)

	_, err = f.flow.CancelRegistration(ctx, id)
	assertInvalidTransition(t, err)
}

func TestFlowRecordsTransitions(t *testing.T) {
	f := newFlowFixture(t, defaultConfig())
	f.addUser(t, "alice", "alice@x.com", "Secure1!")
	ctx := context.Background()
	id := f.start(t)

	_, err := f.flow.SubmitLogin(ctx, id, "alice", "bad")
	require.NoError(t, err)
	_, err = f.flow.SubmitLogin(ctx, id, "alice", "Secure1!")
	require.NoError(t, err)

	transitions := f.metrics.SessionTransitionsTotal
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("none", "anonymous_login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("anonymous_login", "password_prompt_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("password_prompt_failed", "authenticated")))
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}
