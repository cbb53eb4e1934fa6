package provision

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeAccountExists      = "ACCOUNT_ALREADY_EXISTS"
	textCodeSignupFailed       = "IDENTITY_SIGNUP_FAILED"
	textCodeProfilePersistence = "PROFILE_PERSISTENCE_FAILED"
)

// ErrAccountExists is returned when the email is already registered with
// the identity provider, or the profile id already belongs to a
// different signup.
var ErrAccountExists = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrSignupFailed wraps identity-provider failures other than duplication
var ErrSignupFailed = goerrors.New("identity signup failed", goerrors.CategoryAuth).
	WithTextCode(textCodeSignupFailed)

// ErrProfilePersistence wraps profile-store failures other than "already exists"
var ErrProfilePersistence = goerrors.New("profile persistence failed", goerrors.CategoryInternal).
	WithTextCode(textCodeProfilePersistence)

var errInvalidRole = errors.New("must be a valid role")
var errInvalidPhone = errors.New("must be a valid phone number")

// IsDuplicateAccount reports whether err describes an account or profile
// that already exists: our own conflict errors, a provider duplicate
// message, or a store unique-constraint violation.
func IsDuplicateAccount(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAccountExists) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeAccountExists {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "already registered") || strings.Contains(msg, "already exists") {
		return true
	}

	return IsUniqueViolation(err)
}

// IsUniqueViolation will check for unique-constraint violations as
// surfaced by Postgres (SQLSTATE 23505) and SQLite drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
