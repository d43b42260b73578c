// Package valueobject contains domain value objects for the user accounts service.
package valueobject

import "unicode/utf8"

// PasswordStrengthScore counts the distinct character classes in a password, 0 to 4.
type PasswordStrengthScore int

// Password policy defaults.
const (
	MinPasswordLength   = 8
	MinPasswordStrength = PasswordStrengthScore(3)
	MaxPasswordStrength = PasswordStrengthScore(4)
)

// ScorePassword scores a password by character classes: ASCII digit, ASCII
// lowercase, ASCII uppercase and anything else. Each class counts once.
func ScorePassword(password string) PasswordStrengthScore {
	var hasDigit, hasLower, hasUpper, hasSpecial bool
	var score PasswordStrengthScore

	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			if !hasDigit {
				hasDigit = true
				score++
			}
		case r >= 'a' && r <= 'z':
			if !hasLower {
				hasLower = true
				score++
			}
		case r >= 'A' && r <= 'Z':
			if !hasUpper {
				hasUpper = true
				score++
			}
		default:
			if !hasSpecial {
				hasSpecial = true
				score++
			}
		}
		if score == MaxPasswordStrength {
			break
		}
	}

	return score
}

// PasswordPolicy holds the two independent password gates.
type PasswordPolicy struct {
	MinLength   int
	MinStrength PasswordStrengthScore
}

// DefaultPasswordPolicy returns the policy with the default thresholds.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:   MinPasswordLength,
		MinStrength: MinPasswordStrength,
	}
}

// Accepts reports whether the password passes both the length and the strength gate.
// Length is counted in characters, not bytes.
func (p PasswordPolicy) Accepts(password string) bool {
	if utf8.RuneCountInString(password) < p.MinLength {
		return false
	}
	return ScorePassword(password) >= p.MinStrength
}
