// Package apperr defines the error taxonomy shared by the account and
// session services. Handlers map these to HTTP status codes; services
// return them unchanged so the mapping lives in exactly one place.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalArgument marks malformed or out-of-range input. Caller bug.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrAccessDenied marks a failed authorization or credential check. It never
	// distinguishes "wrong password" from "unknown account".
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound marks an absent record, surfaced only to callers already
	// authorized to know the record could exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation (name, refresh token, id) after
	// any retries have been exhausted.
	ErrConflict = errors.New("conflict")
)

// IllegalArgument wraps ErrIllegalArgument with a description of the bad input.
func IllegalArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with the conflicting field.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// InternalError wraps an infrastructure failure (store, signing) with context.
// The cause is kept for logging via errors.Unwrap but must not reach callers.
type InternalError struct {
	Op    string
	Cause error
}

func (e *InternalError) Error() string { return fmt.Sprintf("%s: internal failure", e.Op) }

func (e *InternalError) Unwrap() error { return e.Cause }

// Internal wraps cause as an InternalError for the given operation.
// Returns nil when cause is nil.
func Internal(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &InternalError{Op: op, Cause: cause}
}

// IsDomain reports whether err belongs to the domain taxonomy (propagates to
// the boundary unchanged) as opposed to a wrapped infrastructure failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrIllegalArgument) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict)
}
