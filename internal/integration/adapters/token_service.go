package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/application/adapter"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

const (
	defaultAccessTokenDuration = 30 * time.Minute
	tokenIssuer                = "user-accounts"
	tokenTypeAccess            = "access"
)

// CustomClaims represents the custom claims for JWT tokens.
type CustomClaims struct {
	Name      string `json:"name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// tokenService implements the adapter.TokenService interface.
type tokenService struct {
	secret   []byte
	duration time.Duration
	clock    adapter.Clock
}

// NewTokenService creates a new token service instance.
func NewTokenService(secret string, duration time.Duration, clock adapter.Clock) adapter.TokenService {
	if duration <= 0 {
		duration = defaultAccessTokenDuration
	}
	return &tokenService{
		secret:   []byte(secret),
		duration: duration,
		clock:    clock,
	}
}

// GenerateAccessToken signs an HS256 token whose subject is the user ID.
func (s *tokenService) GenerateAccessToken(_ context.Context, userID uuid.UUID, name string) (*adapter.AccessToken, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.duration)
	claims := CustomClaims{
		Name:      name,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &adapter.AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *tokenService) ValidateAccessToken(_ context.Context, tokenString string) (*adapter.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerror.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", domainerror.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAccess {
		return nil, domainerror.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", domainerror.ErrInvalidToken)
	}

	return &adapter.TokenClaims{
		UserID:    userID,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
