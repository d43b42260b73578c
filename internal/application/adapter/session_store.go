package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/domain/entity"
)

// SessionStore keeps interactive flow sessions for a limited time.
// Get returns domainerror.ErrSessionNotFound for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.AuthSession, error)
	Save(ctx context.Context, session *entity.AuthSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}
