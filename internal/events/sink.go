// Package events publishes account lifecycle events. Publication is
// fire-and-forget: callers log and ignore failures, and a failed publish
// never fails the mutation that triggered it.
package events

import (
	"context"
	"time"
)

// Event types published by the account service.
const (
	TypeAccountDeleted = "account.deleted"
	TypeAccountUpdated = "account.updated"
)

// AccountEvent describes a mutation of an account record.
type AccountEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"account_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink emits account events. Callers use it best-effort: log and ignore errors.
type Sink interface {
	// Emit sends a single event. Implementations may block briefly.
	Emit(ctx context.Context, event AccountEvent) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}

// NopSink discards events. Used when no broker is configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, AccountEvent) error { return nil }
func (NopSink) Close() error                             { return nil }
