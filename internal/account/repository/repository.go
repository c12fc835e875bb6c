package repository

import (
	"context"

	"gatekeeper/backend/internal/account/domain"
)

// Repository defines persistence for accounts. Name and id uniqueness is
// enforced by the store; Create and Update report violations as
// apperr.ErrConflict.
type Repository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
	DeleteByID(ctx context.Context, id string) (int64, error)
}
