// Package service implements the account manager: authorization-gated CRUD
// over account records with credential hashing and session invalidation.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatekeeper/backend/internal/account/domain"
	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/events"
	"gatekeeper/backend/internal/platform/clock"
	"gatekeeper/backend/internal/platform/retry"
	"gatekeeper/backend/internal/security"
)

// AccountRepo is the account persistence contract the service depends on.
type AccountRepo interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// SessionInvalidator force-expires an account's sessions. Used best-effort
// after mutations so stale role snapshots cannot outlive the change.
type SessionInvalidator interface {
	InvalidateAccountSessions(ctx context.Context, accountID string) (int64, error)
}

// UpdateParams carries the optional fields of an account update. Nil fields
// are left unchanged. A password update regenerates the hash/salt pair; there
// is no partial password update.
type UpdateParams struct {
	Name     *string
	Password *string
	Roles    *authz.RoleMask
}

// sensitive reports whether the update needs the freshness check.
func (p UpdateParams) sensitive() bool {
	return p.Password != nil || p.Roles != nil
}

// Service implements account CRUD with the authorization rules applied in a
// fixed order: malformed authority, role membership, ownership, freshness.
type Service struct {
	accounts AccountRepo
	sessions SessionInvalidator
	engine   *authz.Engine
	hasher   *security.Hasher
	sink     events.Sink
	clock    clock.Clock
	logger   *slog.Logger
}

// NewService returns an account Service with the given dependencies.
func NewService(
	accounts AccountRepo,
	sessions SessionInvalidator,
	engine *authz.Engine,
	hasher *security.Hasher,
	sink events.Sink,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		engine:   engine,
		hasher:   hasher,
		sink:     sink,
		clock:    clk,
		logger:   logger,
	}
}

// Create registers a new account. Registration is open to anonymous callers
// and always assigns the base User role; only an update by System/Admin may
// change roles afterwards. A taken name surfaces as Conflict.
func (s *Service) Create(ctx context.Context, caller authz.Authority, name, password string) (*domain.Account, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, apperr.Internal("account.create", err)
	}
	account := &domain.Account{
		Name:         name,
		PasswordHash: s.hasher.Hash(password, salt),
		PasswordSalt: salt,
		Roles:        authz.RoleUser,
	}

	// An id collision is regenerated; a name collision is a real conflict the
	// caller must resolve.
	factory := func() (string, error) { return uuid.New().String(), nil }
	insert := func(id string) (bool, error) {
		account.ID = id
		err := s.accounts.Create(ctx, account)
		if errors.Is(err, apperr.ErrConflict) {
			existing, lookupErr := s.accounts.GetByName(ctx, name)
			if lookupErr != nil {
				return false, lookupErr
			}
			if existing != nil {
				return false, apperr.Conflict("account name %q is taken", name)
			}
			return true, nil
		}
		return false, err
	}
	if _, err := retry.GenerateUnique(ctx, factory, insert); err != nil {
		if apperr.IsDomain(err) {
			return nil, err
		}
		if errors.Is(err, retry.ErrExhausted) {
			return nil, apperr.Conflict("account id generation")
		}
		return nil, apperr.Internal("account.create", err)
	}
	return account, nil
}

// Read returns the account identified by id or name. Reads disclose private
// fields, so callers that are neither System/Admin nor the record owner are
// denied without learning whether the record exists.
func (s *Service) Read(ctx context.Context, caller authz.Authority, id, name string) (*domain.Account, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if id == "" && name == "" {
		return nil, apperr.IllegalArgument("account id or name is required")
	}
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperr.IllegalArgument("account id %q is not a valid id", id)
		}
	}

	var (
		account *domain.Account
		err     error
	)
	if id != "" {
		account, err = s.accounts.GetByID(ctx, id)
	} else {
		account, err = s.accounts.GetByName(ctx, name)
	}
	if err != nil {
		return nil, apperr.Internal("account.read", err)
	}
	if name != "" && account != nil && account.Name != name {
		account = nil
	}

	if caller.Roles.HasAny(authz.RoleSystem | authz.RoleAdmin) {
		if account == nil {
			return nil, apperr.ErrNotFound
		}
		return account, nil
	}
	// Owner path: a missing record is only disclosed when the caller looked
	// up their own id.
	if account != nil {
		if err := s.engine.AuthorizeRead(caller, account.ID); err != nil {
			return nil, err
		}
		return account, nil
	}
	if id != "" {
		if err := s.engine.AuthorizeRead(caller, id); err != nil {
			return nil, err
		}
		return nil, apperr.ErrNotFound
	}
	return nil, apperr.ErrAccessDenied
}

// Update applies the given changes to the account. Password and role changes
// are sensitive: they require a fresh login unless the caller is System, and
// role changes additionally require System/Admin. Existing sessions are
// invalidated afterwards so the change takes effect at the next login.
func (s *Service) Update(ctx context.Context, caller authz.Authority, id string, params UpdateParams) (*domain.Account, error) {
	if id == "" {
		return nil, apperr.IllegalArgument("account id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.IllegalArgument("account id %q is not a valid id", id)
	}
	if params.sensitive() {
		if err := s.engine.AuthorizeSensitive(caller, id, s.clock.Now()); err != nil {
			return nil, err
		}
	} else {
		if err := s.engine.Authorize(caller, id); err != nil {
			return nil, err
		}
	}
	if params.Roles != nil && !caller.Roles.HasAny(authz.RoleSystem|authz.RoleAdmin) {
		return nil, apperr.ErrAccessDenied
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("account.update", err)
	}
	if account == nil {
		return nil, apperr.ErrNotFound
	}

	if params.Name != nil {
		if err := domain.ValidateName(*params.Name); err != nil {
			return nil, err
		}
		account.Name = *params.Name
	}
	if params.Password != nil {
		if err := domain.ValidatePassword(*params.Password); err != nil {
			return nil, err
		}
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, apperr.Internal("account.update", err)
		}
		account.PasswordSalt = salt
		account.PasswordHash = s.hasher.Hash(*params.Password, salt)
	}
	if params.Roles != nil {
		account.Roles = *params.Roles
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		if apperr.IsDomain(err) {
			return nil, err
		}
		return nil, apperr.Internal("account.update", err)
	}

	s.invalidateSessions(ctx, id)
	s.emit(ctx, events.TypeAccountUpdated, id)
	return account, nil
}

// Delete removes the account and cascades to session invalidation and an
// account.deleted event, both best-effort.
func (s *Service) Delete(ctx context.Context, caller authz.Authority, id string) error {
	if id == "" {
		return apperr.IllegalArgument("account id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.IllegalArgument("account id %q is not a valid id", id)
	}
	if err := s.engine.AuthorizeSensitive(caller, id, s.clock.Now()); err != nil {
		return err
	}
	n, err := s.accounts.DeleteByID(ctx, id)
	if err != nil {
		return apperr.Internal("account.delete", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}

	s.invalidateSessions(ctx, id)
	s.emit(ctx, events.TypeAccountDeleted, id)
	return nil
}

// invalidateSessions is a hygiene measure, not a correctness requirement of
// the mutation that triggered it; failures are logged and swallowed.
func (s *Service) invalidateSessions(ctx context.Context, accountID string) {
	if _, err := s.sessions.InvalidateAccountSessions(ctx, accountID); err != nil {
		s.logger.Warn("session invalidation failed", "account_id", accountID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, eventType, accountID string) {
	event := events.AccountEvent{
		Type:       eventType,
		AccountID:  accountID,
		OccurredAt: s.clock.Now(),
	}
	if err := s.sink.Emit(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "account_id", accountID, "error", err)
	}
}
