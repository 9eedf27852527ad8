package account

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/iranadryan/task-manager/internal/domain"
)

const (
	minPasswordLength = 7
	// maxPasswordBytes is the most bcrypt will hash.
	maxPasswordBytes = 72
)

func normalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", domain.NewValidationError("name", "is required")
	}
	return name, nil
}

// canonicalEmail is the form emails are stored and looked up in.
func canonicalEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}

func normalizeEmail(email string) (string, error) {
	email = canonicalEmail(email)
	if email == "" {
		return "", domain.NewValidationError("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", domain.NewValidationError("email", "is invalid")
	}
	return email, nil
}

func validatePassword(password string) error {
	trimmed := strings.TrimSpace(password)
	if utf8.RuneCountInString(trimmed) < minPasswordLength {
		return domain.NewValidationError("password", "must be at least 7 characters")
	}
	if len(password) > maxPasswordBytes {
		return domain.NewValidationError("password", "must be at most 72 bytes")
	}
	if strings.Contains(strings.ToLower(trimmed), "password") {
		return domain.NewValidationError("password", `cannot contain "password"`)
	}
	return nil
}
