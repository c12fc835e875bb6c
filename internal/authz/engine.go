package authz

import (
	"time"

	"gatekeeper/backend/internal/apperr"
)

// anyAuthenticated is the role set every account operation requires at minimum.
const anyAuthenticated = RoleSystem | RoleUser | RoleAdmin

// Engine decides allow/deny for account operations. It is stateless apart
// from the configured freshness window and safe for concurrent use.
type Engine struct {
	// modificationWindow bounds how long after the original login a caller may
	// perform sensitive mutations (password or role changes, deletion) without
	// re-authenticating. Zero disables the check.
	modificationWindow time.Duration
}

// NewEngine returns an Engine with the given freshness window.
func NewEngine(modificationWindow time.Duration) *Engine {
	return &Engine{modificationWindow: modificationWindow}
}

// Authorize gates a mutating operation on the account record owned by ownerID.
// Checks run in a fixed order: malformed authority, role membership, then
// ownership for callers that are neither System nor Admin.
func (e *Engine) Authorize(a Authority, ownerID string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.Roles.HasAny(anyAuthenticated) {
		return apperr.ErrAccessDenied
	}
	if a.Roles.HasAny(RoleSystem | RoleAdmin) {
		return nil
	}
	if a.ID == "" || a.ID != ownerID {
		return apperr.ErrAccessDenied
	}
	return nil
}

// AuthorizeSensitive gates password/role changes and deletion. On top of
// Authorize it requires the caller's session to be fresh: the original login
// must fall within the modification window. System callers bypass the
// freshness check entirely.
func (e *Engine) AuthorizeSensitive(a Authority, ownerID string, now time.Time) error {
	if err := e.Authorize(a, ownerID); err != nil {
		return err
	}
	if a.Roles.HasAny(RoleSystem) {
		return nil
	}
	if e.modificationWindow == 0 {
		return nil
	}
	deadline := a.AuthTime + int64(e.modificationWindow/time.Second)
	if deadline <= now.Unix() {
		return apperr.ErrAccessDenied
	}
	return nil
}

// AuthorizeRead gates reads that disclose private account fields. The rule is
// the same as for mutations: owner, System, or Admin. Existence of the record
// is never leaked to callers that fail this check.
func (e *Engine) AuthorizeRead(a Authority, ownerID string) error {
	return e.Authorize(a, ownerID)
}

// RequireSystem allows only trusted internal callers.
func (e *Engine) RequireSystem(a Authority) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.Roles.HasAny(RoleSystem) {
		return apperr.ErrAccessDenied
	}
	return nil
}
