package valueobject

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Account field limits.
const (
	MinNameLength = 1
	MaxNameLength = 50
)

var fieldValidator = validator.New()

// ValidateEmail checks email syntax with the same rules as the HTTP binding.
func ValidateEmail(email string) error {
	return fieldValidator.Var(email, "required,email")
}

// ValidateName checks that the name is between 1 and 50 characters.
func ValidateName(name string) error {
	return fieldValidator.Var(name, "required,min=1,max=50")
}

// NormalizeField trims surrounding whitespace from a submitted field.
// Names stay case-sensitive.
func NormalizeField(value string) string {
	return strings.TrimSpace(value)
}
