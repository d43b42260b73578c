package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccessToken is a signed bearer token and its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenClaims represents the claims contained in an access token.
type TokenClaims struct {
	UserID    uuid.UUID
	Name      string
	ExpiresAt time.Time
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	// GenerateAccessToken signs a new access token for the user.
	GenerateAccessToken(ctx context.Context, userID uuid.UUID, name string) (*AccessToken, error)

	// ValidateAccessToken validates an access token and returns its claims.
	ValidateAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}

// RecoveryCodeService issues the short numeric codes used to reset a password.
type RecoveryCodeService interface {
	// Generate returns a new random code.
	Generate() (string, error)

	// Hash returns the form of the code kept in the session.
	Hash(code string) string

	// Matches compares a submitted code with a stored hash in constant time.
	Matches(code, hash string) bool
}
