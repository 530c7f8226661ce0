// Package validate holds the field-level validation rules for request
// bodies. Handlers accumulate failures into a FieldErrors map which is
// rendered as the `details` object of a 400 response.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// FieldErrors maps field name to a human-readable failure message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e))
}

// Add records a failure for a field, keeping the first message only.
func (e FieldErrors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Ok reports whether no failures were recorded.
func (e FieldErrors) Ok() bool {
	return len(e) == 0
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Length reports whether the trimmed string has between min and max runes.
func Length(s string, min, max int) bool {
	n := len([]rune(strings.TrimSpace(s)))
	return n >= min && n <= max
}

// UUID reports whether s parses as a UUID.
func UUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// PasswordStrength returns an empty string when the password satisfies the
// policy (min 8 chars, at least one uppercase, lowercase, and digit), or
// the first failed rule's message.
func PasswordStrength(s string) string {
	if len(s) < 8 {
		return "Password must be at least 8 characters"
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return "Password must contain at least one lowercase letter"
	}
	if !hasDigit {
		return "Password must contain at least one number"
	}
	return ""
}
