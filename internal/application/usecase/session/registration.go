package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

// SubmitRegistration advances the registration tab. Fields are accepted in
// order (email, name, password) and each accepted field is kept in the
// draft, so a client may send them one at a time. The login state of the
// session is not touched.
func (f *Flow) SubmitRegistration(ctx context.Context, id uuid.UUID, email, name, password string) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := s.DisplayState()
	draft := &s.Registration

	email = valueobject.NormalizeField(email)
	if email == "" {
		email = draft.Email
	}
	if email == "" {
		return f.idle(s, "email"), nil
	}
	if email != draft.Email {
		if err := valueobject.ValidateEmail(email); err != nil {
			return f.commit(ctx, s, from, OutcomeInvalidEmail, domainerror.ErrInvalidEmail.Error())
		}
		taken, err := f.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email existence: %w", err)
		}
		if taken {
			return f.commit(ctx, s, from, Outcome(valueobject.RegisterOutcomeEmailTaken), domainerror.ErrEmailTaken.Error())
		}
		draft.Email = email
	}

	name = valueobject.NormalizeField(name)
	if name == "" {
		name = draft.Name
	}
	if name == "" {
		return f.pending(ctx, s, from, "name")
	}
	if name != draft.Name {
		if err := valueobject.ValidateName(name); err != nil {
			return f.commit(ctx, s, from, OutcomeInvalidName, domainerror.ErrInvalidName.Error())
		}
		taken, err := f.userRepo.ExistsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check name existence: %w", err)
		}
		if taken {
			return f.commit(ctx, s, from, Outcome(valueobject.RegisterOutcomeNameTaken), domainerror.ErrNameTaken.Error())
		}
		draft.Name = name
	}

	if password == "" {
		return f.pending(ctx, s, from, "password")
	}

	out, err := f.register.Execute(ctx, account.RegisterUserInput{
		Name:     draft.Name,
		Email:    draft.Email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	switch out.Outcome {
	case valueobject.RegisterOutcomeCreated:
		s.Registration = entity.RegistrationDraft{}
		return f.commit(ctx, s, from, Outcome(out.Outcome), "Account created for "+out.User.Name+", you can now log in")
	case valueobject.RegisterOutcomeEmailTaken:
		// Taken between the field check and the insert.
		draft.Email = ""
	case valueobject.RegisterOutcomeNameTaken:
		draft.Name = ""
	}

	return f.commit(ctx, s, from, Outcome(out.Outcome), out.Rejection.Message)
}

// CancelRegistration discards the registration draft.
func (f *Flow) CancelRegistration(ctx context.Context, id uuid.UUID) (*Result, error) {
	s, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Registration.IsEmpty() {
		return nil, invalidTransition("cancel registration", s)
	}

	from := s.DisplayState()
	s.Registration = entity.RegistrationDraft{}
	return f.commit(ctx, s, from, OutcomeRegistrationCancelled, "")
}

func (f *Flow) pending(ctx context.Context, s *entity.AuthSession, from entity.SessionState, nextField string) (*Result, error) {
	result, err := f.commit(ctx, s, from, OutcomePending, "")
	if err != nil {
		return nil, err
	}
	result.NextField = nextField
	return result, nil
}
