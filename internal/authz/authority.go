package authz

import (
	"github.com/google/uuid"

	"gatekeeper/backend/internal/apperr"
)

// Authority is the caller identity reconstructed per request from a verified
// identity token. The zero value is the anonymous caller. Authorities arrive
// from outside the engine and are re-validated on every call.
type Authority struct {
	// ID is the account id of the caller; empty when anonymous.
	ID string
	// Roles is the caller's role mask; zero when unknown.
	Roles RoleMask
	// AuthTime is the Unix time of the caller's original login, not the last
	// token renewal. Zero when anonymous.
	AuthTime int64
}

// Anonymous reports whether the authority carries no identity.
func (a Authority) Anonymous() bool {
	return a.ID == "" && a.Roles == 0
}

// Validate rejects malformed authorities. A zero-valued (anonymous) authority
// is valid; a non-empty ID must be a UUID and AuthTime must not be negative.
func (a Authority) Validate() error {
	if a.ID != "" {
		if _, err := uuid.Parse(a.ID); err != nil {
			return apperr.IllegalArgument("authority id %q is not a valid id", a.ID)
		}
	}
	if a.AuthTime < 0 {
		return apperr.IllegalArgument("authority auth time must not be negative")
	}
	return nil
}
