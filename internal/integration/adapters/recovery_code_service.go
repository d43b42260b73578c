package adapters

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/user-accounts/backend/internal/application/adapter"
)

const defaultRecoveryCodeDigits = 6

// recoveryCodeService implements adapter.RecoveryCodeService with numeric codes.
type recoveryCodeService struct {
	digits int
	max    *big.Int
}

// NewRecoveryCodeService creates a service issuing codes of the given digit count.
func NewRecoveryCodeService(digits int) adapter.RecoveryCodeService {
	if digits <= 0 {
		digits = defaultRecoveryCodeDigits
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	return &recoveryCodeService{digits: digits, max: max}
}

// Generate returns a zero-padded random code from crypto/rand.
func (s *recoveryCodeService) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, s.max)
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	return fmt.Sprintf("%0*d", s.digits, n), nil
}

// Hash returns the SHA-256 hex digest of the code.
func (s *recoveryCodeService) Hash(code string) string {
	return sha256Hex(code)
}

// Matches compares the submitted code's hash with the stored hash in constant time.
func (s *recoveryCodeService) Matches(code, hash string) bool {
	if code == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sha256Hex(code)), []byte(hash)) == 1
}
