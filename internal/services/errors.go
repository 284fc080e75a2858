package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("you are not a member of this household")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyMember      = errors.New("user is already a member of this household")
)

// notFound wraps ErrNotFound with the resource name, e.g. "shopping list not found".
func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ValidationError reports a single field that failed its constraints.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && min > 0:
		return invalid(field, "is required")
	case n < min:
		return invalid(field, fmt.Sprintf("must be at least %d characters", min))
	case n > max:
		return invalid(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

// optionalText trims value and returns nil for an empty result so the
// column is stored as NULL.
func optionalText(field, value string, max int) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if err := checkLength(field, value, 0, max); err != nil {
		return nil, err
	}
	return &value, nil
}
