// Package domain holds the account entity.
package domain

import (
	"regexp"

	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
)

// namePattern restricts account names to 4–32 word characters.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,32}$`)

// Account is the core account entity. ID and Name are both unique lookup
// keys; the hash/salt pair is regenerated together on every password change.
type Account struct {
	ID           string
	Name         string
	PasswordHash string
	PasswordSalt string
	Roles        authz.RoleMask
}

// ValidateName checks the account name against the restricted alphabet and
// length bounds.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return apperr.IllegalArgument("account name must be 4-32 characters of [A-Za-z0-9_]")
	}
	return nil
}

// ValidatePassword enforces the minimal password shape accepted at
// registration and update.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return apperr.IllegalArgument("password must be 8-128 characters")
	}
	return nil
}
