package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/session/domain"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. A duplicate id or refresh token surfaces as
// apperr.ErrConflict for the caller's regenerate-and-retry loop.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, roles, refresh_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.AccountID, int16(s.Roles), s.RefreshToken, s.CreatedAt, s.ExpiresAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("session %s", pgErr.ConstraintName)
	}
	return err
}

// GetByID returns the session for id, or nil if not found. It returns an
// error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.getOne(ctx, `
		SELECT id, account_id, roles, refresh_token, created_at, expires_at
		FROM sessions WHERE id = $1`, id)
}

// GetByRefreshToken returns the session holding the given refresh token, or
// nil if not found.
func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.getOne(ctx, `
		SELECT id, account_id, roles, refresh_token, created_at, expires_at
		FROM sessions WHERE refresh_token = $1`, token)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Session, error) {
	var (
		s     domain.Session
		roles int16
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.AccountID, &roles, &s.RefreshToken, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Roles = authz.RoleMask(roles)
	return &s, nil
}

// DeleteByID removes the session with the given id and returns the number of
// rows removed.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
}

// DeleteByAccountID removes every session belonging to the account.
func (r *PostgresRepository) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
}

// DeleteByRefreshToken removes the session holding the refresh token.
// Deleting a token that does not exist removes zero rows and is not an error.
func (r *PostgresRepository) DeleteByRefreshToken(ctx context.Context, token string) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token)
}

// DeleteExpiredBefore removes sessions whose hard lifetime ended at or before
// cutoff. Used by the reaper.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, cutoff)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
