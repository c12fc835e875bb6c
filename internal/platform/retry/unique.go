// Package retry holds the bounded retry policy for generating unique values
// (ids, refresh tokens) against a store that enforces uniqueness.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt produced a conflicting value.
// Values are drawn from a large random space, so reaching this indicates a
// store problem rather than bad luck.
var ErrExhausted = errors.New("unique generation attempts exhausted")

const (
	defaultAttempts = 5
	defaultBackoff  = 10 * time.Millisecond
)

// GenerateUnique calls factory to produce a candidate value and insert to
// commit it. When insert reports a conflict, a new candidate is generated and
// the insert retried with a small backoff, up to a fixed attempt bound.
// Non-conflict errors abort immediately.
func GenerateUnique[T any](ctx context.Context, factory func() (T, error), insert func(T) (conflict bool, err error)) (T, error) {
	var zero T
	backoff := defaultBackoff
	for attempt := 0; attempt < defaultAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			backoff *= 2
		}
		candidate, err := factory()
		if err != nil {
			return zero, err
		}
		conflict, err := insert(candidate)
		if err != nil {
			return zero, err
		}
		if !conflict {
			return candidate, nil
		}
	}
	return zero, ErrExhausted
}
