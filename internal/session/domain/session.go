// Package domain holds the persistent session entity.
package domain

import (
	"time"

	"gatekeeper/backend/internal/authz"
)

// Session is the durable record anchoring a login. It survives independent of
// the short-lived identity token that references it. Roles is a snapshot
// taken at login time; account mutations invalidate sessions rather than
// updating the snapshot.
type Session struct {
	ID           string
	AccountID    string
	Roles        authz.RoleMask
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the session's hard lifetime has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
