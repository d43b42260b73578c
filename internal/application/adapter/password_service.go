package adapter

import "github.com/user-accounts/backend/internal/domain/valueobject"

// PasswordService defines the interface for password hashing and verification.
type PasswordService interface {
	// HashPassword returns the digest stored for a password.
	HashPassword(password string) (string, error)

	// VerifyPassword reports whether password produces the stored digest.
	VerifyPassword(password, digest string) bool

	// ScorePassword returns the character class score of a password.
	ScorePassword(password string) valueobject.PasswordStrengthScore

	// ValidatePasswordStrength applies the length and strength gates.
	ValidatePasswordStrength(password string) error
}
