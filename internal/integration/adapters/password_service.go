// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user-accounts/backend/internal/application/adapter"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

// HashScheme selects how new password digests are produced.
type HashScheme string

const (
	// HashSchemeSHA256 is the unsalted hex digest. Deterministic.
	HashSchemeSHA256 HashScheme = "sha256"
	// HashSchemeBcrypt produces salted bcrypt digests.
	HashSchemeBcrypt HashScheme = "bcrypt"

	bcryptCost   = 12
	bcryptPrefix = "$2"
)

// passwordService implements the adapter.PasswordService interface.
type passwordService struct {
	scheme HashScheme
	policy valueobject.PasswordPolicy
}

// NewPasswordService creates a new password service instance.
// Unknown schemes fall back to sha256.
func NewPasswordService(scheme HashScheme, policy valueobject.PasswordPolicy) adapter.PasswordService {
	if scheme != HashSchemeBcrypt {
		scheme = HashSchemeSHA256
	}
	return &passwordService{
		scheme: scheme,
		policy: policy,
	}
}

// HashPassword returns the digest for password under the configured scheme.
func (s *passwordService) HashPassword(password string) (string, error) {
	if s.scheme == HashSchemeBcrypt {
		hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(hashedBytes), nil
	}
	return sha256Hex(password), nil
}

// VerifyPassword accepts digests of either scheme, so switching schemes keeps
// existing accounts working.
func (s *passwordService) VerifyPassword(password, digest string) bool {
	if strings.HasPrefix(digest, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(sha256Hex(password)), []byte(digest)) == 1
}

// ScorePassword returns the character class score of a password.
func (s *passwordService) ScorePassword(password string) valueobject.PasswordStrengthScore {
	return valueobject.ScorePassword(password)
}

// ValidatePasswordStrength applies the length and the strength gate.
func (s *passwordService) ValidatePasswordStrength(password string) error {
	if s.policy.Accepts(password) {
		return nil
	}
	return domainerror.NewAuthError(
		domainerror.ErrCodeWeakPassword,
		fmt.Sprintf("Password must be at least %d characters and mix %d of: digits, lowercase, uppercase, symbols",
			s.policy.MinLength, s.policy.MinStrength),
		domainerror.ErrWeakPassword,
	)
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
