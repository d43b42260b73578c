package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/usecase/auth"
	"github.com/user-accounts/backend/internal/domain/entity"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

// SubmitLogin checks credentials from the login screen. A wrong password
// moves to the failed prompt, where recovery becomes available; an unknown
// user stays put.
func (f *Flow) SubmitLogin(ctx context.Context, id uuid.UUID, name, password string) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStateAnonymousLogin && s.State != entity.SessionStatePasswordPromptFailed {
		return nil, invalidTransition("log in", s)
	}

	name = valueobject.NormalizeField(name)
	if name == "" || password == "" {
		return f.idle(s, "name"), nil
	}

	out, err := f.authenticate.Execute(ctx, auth.AuthenticateUserInput{Name: name, Password: password})
	if err != nil {
		return nil, err
	}

	from := s.DisplayState()
	switch out.Outcome {
	case valueobject.AuthOutcomeAuthenticated:
		s.ClearRecovery()
		s.State = entity.SessionStateAuthenticated
		s.Authenticated = true
		s.UserName = out.User.Name
		return f.commit(ctx, s, from, Outcome(out.Outcome), "Welcome "+out.User.Name)
	case valueobject.AuthOutcomeWrongPassword:
		s.State = entity.SessionStatePasswordPromptFailed
	}

	return f.commit(ctx, s, from, Outcome(out.Outcome), out.Rejection.Message)
}

// Logout discards an authenticated session and opens a fresh one on the
// login screen. The old id is no longer valid.
func (f *Flow) Logout(ctx context.Context, id uuid.UUID) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != entity.SessionStateAuthenticated {
		return nil, invalidTransition("log out", s)
	}

	if err := f.store.Delete(ctx, s.ID); err != nil {
		return nil, err
	}
	fresh := entity.NewAuthSession(f.clock.Now())

	f.logger.Info("User logged out", "session_id", s.ID, "next_session_id", fresh.ID, "name", s.UserName)
	return f.commit(ctx, fresh, s.DisplayState(), OutcomeLoggedOut, "Logged out")
}
