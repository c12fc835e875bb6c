// Package authz implements the role bitmask model and the authorization
// engine that gates every account operation.
package authz

// RoleMask is a set of roles packed into a bitmask. Roles combine with
// bitwise OR; containment checks use the named predicates below rather than
// raw arithmetic at call sites.
type RoleMask uint8

const (
	// RoleSystem marks trusted internal callers (service-to-service).
	RoleSystem RoleMask = 1 << iota
	// RoleUser is the base role assigned to every account at creation.
	RoleUser
	// RoleAdmin may read and mutate accounts it does not own.
	RoleAdmin
)

// maskMax is the widest value a wire-level role mask may carry. Bits above
// the defined roles are tolerated in storage but never granted meaning.
const maskMax = 0xFF

// HasAny reports whether m holds at least one of the required roles.
// An empty required mask means "no restriction" and always passes.
func (m RoleMask) HasAny(required RoleMask) bool {
	if required == 0 {
		return true
	}
	return m&required != 0
}

// HasAll reports whether m holds every role in required.
func (m RoleMask) HasAll(required RoleMask) bool {
	return m&required == required
}

// ValidMaskValue reports whether v fits the wire range of a role mask.
// Callers validating untrusted input reject out-of-range values as an
// illegal argument before narrowing to RoleMask.
func ValidMaskValue(v int64) bool {
	return v >= 0 && v <= maskMax
}
