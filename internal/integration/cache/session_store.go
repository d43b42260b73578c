// Package cache implements adapter interfaces backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

const sessionKeyPrefix = "session:"

// sessionStore implements adapter.SessionStore with one JSON value per session.
// Every save refreshes the TTL.
type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, ttl time.Duration) adapter.SessionStore {
	return &sessionStore{
		client: client,
		ttl:    ttl,
	}
}

// Get loads a session.
func (s *sessionStore) Get(ctx context.Context, id uuid.UUID) (*entity.AuthSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainerror.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session entity.AuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Save stores a session.
func (s *sessionStore) Save(ctx context.Context, session *entity.AuthSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *sessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}
