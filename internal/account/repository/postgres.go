package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"gatekeeper/backend/internal/account/domain"
	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the account. A duplicate id or name surfaces as
// apperr.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, password_hash, password_salt, roles)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.PasswordHash, a.PasswordSalt, int16(a.Roles),
	)
	return conflictOr(err)
}

// GetByID returns the account for id, or nil if not found. It returns an
// error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, `
		SELECT id, name, password_hash, password_salt, roles
		FROM accounts WHERE id = $1`, id)
}

// GetByName returns the account with the given name, or nil if not found.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	return r.getOne(ctx, `
		SELECT id, name, password_hash, password_salt, roles
		FROM accounts WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var (
		a     domain.Account
		roles int16
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Name, &a.PasswordHash, &a.PasswordSalt, &roles,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Roles = authz.RoleMask(roles)
	return &a, nil
}

// Update overwrites the stored account row identified by a.ID. A name change
// colliding with another account surfaces as apperr.ErrConflict. Updating a
// missing row returns apperr.ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $2, password_hash = $3, password_salt = $4, roles = $5
		WHERE id = $1`,
		a.ID, a.Name, a.PasswordHash, a.PasswordSalt, int16(a.Roles),
	)
	if err := conflictOr(err); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteByID removes the account and returns the number of rows removed.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func conflictOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("account %s", pgErr.ConstraintName)
	}
	return err
}
