// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Entity-specific errors wrap it so callers can test with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email format", ErrValidation)

	// ErrEmptyID is returned when an entity has no identifier.
	ErrEmptyID = fmt.Errorf("%w: id cannot be empty", ErrValidation)
)

var validate = validator.New()

// validationError builds an error wrapping ErrValidation with a field-level message.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NormalizeEmail lower-cases and trims an email address. Emails are compared
// and stored in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether s is a syntactically valid email address.
func IsValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
