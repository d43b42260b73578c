package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/infra/observability"
	"github.com/user-accounts/backend/internal/integration/adapters"
	"github.com/user-accounts/backend/internal/integration/persistence"
	tu "github.com/user-accounts/backend/internal/testutil"
)

type fixture struct {
	repo     adapter.UserRepository
	password adapter.PasswordService
	outbox   *tu.Outbox
	metrics  *observability.Metrics
	clock    *tu.Clock
	register *RegisterUserUseCase
	update   *UpdateUserUseCase
	delete   *DeleteUserUseCase
	get      *GetUserUseCase
	list     *ListUsersUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, persistence.NewUserRepository(tu.NewDB(t)))
}

func newFixtureWithRepo(t *testing.T, repo adapter.UserRepository) *fixture {
	t.Helper()
	password := adapters.NewPasswordService(adapters.HashSchemeSHA256, valueobject.DefaultPasswordPolicy())
	outbox := &tu.Outbox{}
	metrics := observability.NewMetrics()
	clock := tu.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	logger := tu.Logger()

	return &fixture{
		repo:     repo,
		password: password,
		outbox:   outbox,
		metrics:  metrics,
		clock:    clock,
		register: NewRegisterUserUseCase(repo, password, outbox, metrics, clock, logger),
		update:   NewUpdateUserUseCase(repo, password, metrics, clock, logger),
		delete:   NewDeleteUserUseCase(repo, metrics, logger),
		get:      NewGetUserUseCase(repo),
		list:     NewListUsersUseCase(repo),
	}
}

func (f *fixture) mustRegister(t *testing.T, name, email, password string) *entity.User {
	t.Helper()
	out, err := f.register.Execute(context.Background(), RegisterUserInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	require.Equal(t, valueobject.RegisterOutcomeCreated, out.Outcome)
	return out.User
}

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name         string
		input        RegisterUserInput
		expected     valueobject.RegisterOutcome
		expectedCode domainerror.AuthErrorCode
	}{
		{
			name:     "creates a new account",
			input:    RegisterUserInput{Name: "bob", Email: "bob@example.com", Password: "Secure1!"},
			expected: valueobject.RegisterOutcomeCreated,
		},
		{
			name:         "same name twice is rejected",
			input:        RegisterUserInput{Name: "alice", Email: "other@example.com", Password: "Secure1!"},
			expected:     valueobject.RegisterOutcomeNameTaken,
			expectedCode: domainerror.ErrCodeNameTaken,
		},
		{
			name:         "existing email is rejected",
			input:        RegisterUserInput{Name: "bob", Email: "alice@example.com", Password: "Secure1!"},
			expected:     valueobject.RegisterOutcomeEmailTaken,
			expectedCode: domainerror.ErrCodeEmailTaken,
		},
		{
			name:         "email is checked before name",
			input:        RegisterUserInput{Name: "alice", Email: "alice@example.com", Password: "Secure1!"},
			expected:     valueobject.RegisterOutcomeEmailTaken,
			expectedCode: domainerror.ErrCodeEmailTaken,
		},
		{
			name:         "seven character strong password is too short",
			input:        RegisterUserInput{Name: "bob", Email: "bob@example.com", Password: "Secur1!"},
			expected:     valueobject.RegisterOutcomeWeakPassword,
			expectedCode: domainerror.ErrCodeWeakPassword,
		},
		{
			name:         "long password with two classes is too weak",
			input:        RegisterUserInput{Name: "bob", Email: "bob@example.com", Password: "password123"},
			expected:     valueobject.RegisterOutcomeWeakPassword,
			expectedCode: domainerror.ErrCodeWeakPassword,
		},
		{
			name:     "exactly eight characters with three classes passes",
			input:    RegisterUserInput{Name: "bob", Email: "bob@example.com", Password: "Abcdefg1"},
			expected: valueobject.RegisterOutcomeCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mustRegister(t, "alice", "alice@example.com", "Secure1!")

			out, err := f.register.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Outcome)

			if tt.expected == valueobject.RegisterOutcomeCreated {
				assert.Nil(t, out.Rejection)
				require.NotNil(t, out.User)
				assert.Equal(t, tt.input.Name, out.User.Name)
				assert.NotEqual(t, tt.input.Password, out.User.PasswordDigest)
				assert.Len(t, f.outbox.Welcomes, 2)
				return
			}

			require.NotNil(t, out.Rejection)
			assert.Equal(t, tt.expectedCode, out.Rejection.Code)
			assert.NotEmpty(t, out.Rejection.Message)
			assert.Nil(t, out.User)
			assert.Len(t, f.outbox.Welcomes, 1)
		})
	}
}

func TestRegisterThenAuthenticateRoundTrip(t *testing.T) {
	f := newFixture(t)
	user := f.mustRegister(t, "alice", "alice@example.com", "Secure1!")

	assert.True(t, f.password.VerifyPassword("Secure1!", user.PasswordDigest))
	assert.False(t, f.password.VerifyPassword("wrong", user.PasswordDigest))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AccountOperationsTotal.WithLabelValues("register", "created")))
}

func TestRegisterWelcomeEmailFailureDoesNotFailRegistration(t *testing.T) {
	f := newFixture(t)
	f.outbox.Err = errors.New("queue down")

	out, err := f.register.Execute(context.Background(), RegisterUserInput{Name: "alice", Email: "alice@example.com", Password: "Secure1!"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RegisterOutcomeCreated, out.Outcome)
}

// racingRepo hides existing users from the next existence checks so the
// insert hits the unique index.
type racingRepo struct {
	adapter.UserRepository
	hiddenChecks int
}

func (r *racingRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	if r.hiddenChecks > 0 {
		r.hiddenChecks--
		return false, nil
	}
	return r.UserRepository.ExistsByName(ctx, name)
}

func (r *racingRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r.hiddenChecks > 0 {
		r.hiddenChecks--
		return false, nil
	}
	return r.UserRepository.ExistsByEmail(ctx, email)
}

func TestRegisterResolvesUniqueIndexViolation(t *testing.T) {
	repo := &racingRepo{UserRepository: persistence.NewUserRepository(tu.NewDB(t))}
	f := newFixtureWithRepo(t, repo)
	f.mustRegister(t, "alice", "alice@example.com", "Secure1!")

	repo.hiddenChecks = 2
	out, err := f.register.Execute(context.Background(), RegisterUserInput{Name: "alice", Email: "new@example.com", Password: "Secure1!"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RegisterOutcomeNameTaken, out.Outcome)
}

type brokenRepo struct {
	adapter.UserRepository
}

func (brokenRepo) ExistsByEmail(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenRepo) FindByName(context.Context, string) (*entity.User, error) {
	return nil, errors.New("connection refused")
}

func (brokenRepo) DeleteByName(context.Context, string) error {
	return errors.New("connection refused")
}

func TestStoreFaultsPropagate(t *testing.T) {
	f := newFixtureWithRepo(t, brokenRepo{})
	ctx := context.Background()

	_, err := f.register.Execute(ctx, RegisterUserInput{Name: "a", Email: "a@example.com", Password: "Secure1!"})
	assert.Error(t, err)

	_, err = f.update.Execute(ctx, UpdateUserInput{CurrentName: "a", NewName: "a", NewEmail: "a@example.com", NewPassword: "Secure1!"})
	assert.Error(t, err)

	_, err = f.delete.Execute(ctx, DeleteUserInput{Name: "a"})
	assert.Error(t, err)

	_, err = f.get.Execute(ctx, GetUserInput{Name: "a"})
	assert.Error(t, err)
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name     string
		input    UpdateUserInput
		expected valueobject.UpdateOutcome
	}{
		{
			name:     "updates every field",
			input:    UpdateUserInput{CurrentName: "alice", NewName: "alicia", NewEmail: "alicia@example.com", NewPassword: "NewStrong1!"},
			expected: valueobject.UpdateOutcomeUpdated,
		},
		{
			name:     "keeping the same name is allowed",
			input:    UpdateUserInput{CurrentName: "alice", NewName: "alice", NewEmail: "alice@example.com", NewPassword: "NewStrong1!"},
			expected: valueobject.UpdateOutcomeUpdated,
		},
		{
			name:     "unknown user",
			input:    UpdateUserInput{CurrentName: "nobody", NewName: "nobody", NewEmail: "n@example.com", NewPassword: "NewStrong1!"},
			expected: valueobject.UpdateOutcomeNotFound,
		},
		{
			name:     "renaming onto another user",
			input:    UpdateUserInput{CurrentName: "alice", NewName: "bob", NewEmail: "alice@example.com", NewPassword: "NewStrong1!"},
			expected: valueobject.UpdateOutcomeNameConflict,
		},
		{
			name:     "changing email to another user's",
			input:    UpdateUserInput{CurrentName: "alice", NewName: "alice", NewEmail: "bob@example.com", NewPassword: "NewStrong1!"},
			expected: valueobject.UpdateOutcomeEmailConflict,
		},
		{
			name:     "weak new password",
			input:    UpdateUserInput{CurrentName: "alice", NewName: "alice", NewEmail: "alice@example.com", NewPassword: "weak"},
			expected: valueobject.UpdateOutcomeWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mustRegister(t, "alice", "alice@example.com", "Secure1!")
			f.mustRegister(t, "bob", "bob@example.com", "Secure1!")

			out, err := f.update.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Outcome)

			stored, err := f.repo.FindByName(context.Background(), "alice")
			if tt.expected != valueobject.UpdateOutcomeUpdated {
				require.NotNil(t, out.Rejection)
				require.NoError(t, err)
				assert.True(t, f.password.VerifyPassword("Secure1!", stored.PasswordDigest), "rejected update must not change the account")
				return
			}

			assert.Nil(t, out.Rejection)
			updated, err := f.repo.FindByName(context.Background(), tt.input.NewName)
			require.NoError(t, err)
			assert.Equal(t, tt.input.NewEmail, updated.Email)
			assert.True(t, f.password.VerifyPassword("NewStrong1!", updated.PasswordDigest))
			assert.False(t, f.password.VerifyPassword("Secure1!", updated.PasswordDigest))
		})
	}
}

func TestAccountTimestampsFollowClock(t *testing.T) {
	f := newFixture(t)
	created := f.clock.Now()

	user := f.mustRegister(t, "alice", "alice@example.com", "Secure1!")
	assert.True(t, user.CreatedAt.Equal(created))
	assert.True(t, user.UpdatedAt.Equal(created))

	f.clock.Advance(time.Hour)
	out, err := f.update.Execute(context.Background(), UpdateUserInput{
		CurrentName: "alice",
		NewName:     "alice",
		NewEmail:    "alice@example.com",
		NewPassword: "Secure2!",
	})
	require.NoError(t, err)
	require.Equal(t, valueobject.UpdateOutcomeUpdated, out.Outcome)
	assert.True(t, out.User.CreatedAt.Equal(created))
	assert.True(t, out.User.UpdatedAt.Equal(created.Add(time.Hour)))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustRegister(t, "alice", "alice@example.com", "Secure1!")

	out, err := f.delete.Execute(ctx, DeleteUserInput{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeleteOutcomeDeleted, out.Outcome)

	out, err = f.delete.Execute(ctx, DeleteUserInput{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeleteOutcomeNotFound, out.Outcome)
	require.NotNil(t, out.Rejection)
	assert.Equal(t, domainerror.ErrCodeAccountNotFound, out.Rejection.Code)
}

func TestGetAndListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	listed, err := f.list.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed.Users)

	bob := f.mustRegister(t, "bob", "bob@example.com", "Secure1!")
	f.mustRegister(t, "alice", "alice@example.com", "Secure1!")

	listed, err = f.list.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, listed.Users, 2)
	assert.Equal(t, "alice", listed.Users[0].Name)

	byName, err := f.get.Execute(ctx, GetUserInput{Name: "bob"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, byName.User.ID)

	byID, err := f.get.Execute(ctx, GetUserInput{ID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.User.Name)

	missing, err := f.get.Execute(ctx, GetUserInput{Name: "carol"})
	require.NoError(t, err)
	assert.Nil(t, missing.User)
	require.NotNil(t, missing.Rejection)
}
