package repository

import (
	"context"
	"time"

	"gatekeeper/backend/internal/session/domain"
)

// Repository defines persistence for sessions. Uniqueness of id and refresh
// token is enforced by the store, not by application-level locking; Create
// reports violations as apperr.ErrConflict so callers can regenerate.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)
	DeleteByRefreshToken(ctx context.Context, token string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
