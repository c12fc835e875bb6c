// Package service implements the session manager: credential and refresh
// logins, identity reconstruction, logout, and expired-session purging.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accountdomain "gatekeeper/backend/internal/account/domain"
	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/platform/clock"
	"gatekeeper/backend/internal/platform/retry"
	"gatekeeper/backend/internal/security"
	"gatekeeper/backend/internal/session/domain"
)

// RefreshTokenLength is the length of generated refresh tokens.
const RefreshTokenLength = 64

// AccountReader is the minimal account lookup the session service needs for
// credential login.
type AccountReader interface {
	GetByName(ctx context.Context, name string) (*accountdomain.Account, error)
}

// SessionRepo is the session persistence contract the service depends on.
type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)
	DeleteByRefreshToken(ctx context.Context, token string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LoginResult holds the credentials issued by a successful login or renewal.
type LoginResult struct {
	SessionID     string
	AccountID     string
	IdentityToken string
	RefreshToken  string
	ExpiresAt     time.Time
}

// Service implements session lifecycle operations. It is request-scoped and
// stateless between calls: all durable state lives in the stores.
type Service struct {
	sessions SessionRepo
	accounts AccountReader
	codec    *security.TokenCodec
	hasher   *security.Hasher
	random   security.RandomSource
	engine   *authz.Engine
	clock    clock.Clock
	logger   *slog.Logger

	// sessionTTL is the hard lifetime of a persistent session.
	sessionTTL time.Duration
	// tokenTTL is the lifetime of issued identity tokens; zero issues
	// unbounded tokens.
	tokenTTL time.Duration
}

// NewService returns a session Service with the given dependencies.
func NewService(
	sessions SessionRepo,
	accounts AccountReader,
	codec *security.TokenCodec,
	hasher *security.Hasher,
	random security.RandomSource,
	engine *authz.Engine,
	clk clock.Clock,
	logger *slog.Logger,
	sessionTTL, tokenTTL time.Duration,
) *Service {
	return &Service{
		sessions:   sessions,
		accounts:   accounts,
		codec:      codec,
		hasher:     hasher,
		random:     random,
		engine:     engine,
		clock:      clk,
		logger:     logger,
		sessionTTL: sessionTTL,
		tokenTTL:   tokenTTL,
	}
}

// LoginWithCredentials authenticates name/password and creates a persistent
// session plus an identity token referencing it. A missing account and a
// password mismatch produce the same AccessDenied; the caller learns nothing
// about which check failed.
func (s *Service) LoginWithCredentials(ctx context.Context, caller authz.Authority, name, password string) (*LoginResult, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if name == "" || password == "" {
		return nil, apperr.ErrAccessDenied
	}
	account, err := s.accounts.GetByName(ctx, name)
	if err != nil {
		return nil, apperr.Internal("session.login", err)
	}
	if account == nil || !s.hasher.Verify(password, account.PasswordSalt, account.PasswordHash) {
		return nil, apperr.ErrAccessDenied
	}

	now := s.clock.Now()
	sess, err := s.createSession(ctx, account, now)
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return nil, apperr.Conflict("refresh token generation")
		}
		return nil, apperr.Internal("session.login", err)
	}

	token, err := s.signFor(sess.ID, now)
	if err != nil {
		// Avoid an orphaned session row; surface both failures when the
		// cleanup also fails.
		if _, delErr := s.sessions.DeleteByID(ctx, sess.ID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return nil, apperr.Internal("session.login", err)
	}

	return &LoginResult{
		SessionID:     sess.ID,
		AccountID:     account.ID,
		IdentityToken: token,
		RefreshToken:  sess.RefreshToken,
		ExpiresAt:     s.tokenExpiry(now),
	}, nil
}

// createSession inserts a session row, regenerating id and refresh token on
// uniqueness conflicts. Collisions are exceptional, not systemic; the retry
// is bounded so an unhealthy store fails instead of looping.
func (s *Service) createSession(ctx context.Context, account *accountdomain.Account, now time.Time) (*domain.Session, error) {
	factory := func() (*domain.Session, error) {
		token, err := s.random.RandomString(RefreshTokenLength)
		if err != nil {
			return nil, err
		}
		return &domain.Session{
			ID:           uuid.New().String(),
			AccountID:    account.ID,
			Roles:        account.Roles,
			RefreshToken: token,
			CreatedAt:    now,
			ExpiresAt:    now.Add(s.sessionTTL),
		}, nil
	}
	insert := func(sess *domain.Session) (bool, error) {
		err := s.sessions.Create(ctx, sess)
		if errors.Is(err, apperr.ErrConflict) {
			return true, nil
		}
		return false, err
	}
	return retry.GenerateUnique(ctx, factory, insert)
}

// LoginWithRefreshToken mints a fresh identity token for the session holding
// the refresh token. The persistent session's hard expiry is untouched, so
// renewal slides the short-lived credential inside the fixed session window.
func (s *Service) LoginWithRefreshToken(ctx context.Context, caller authz.Authority, refreshToken string) (*LoginResult, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if refreshToken == "" || len(refreshToken) > 4096 {
		return nil, apperr.ErrAccessDenied
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Internal("session.refresh", err)
	}
	now := s.clock.Now()
	if sess == nil || sess.Expired(now) {
		return nil, apperr.ErrAccessDenied
	}
	token, err := s.signFor(sess.ID, now)
	if err != nil {
		return nil, apperr.Internal("session.refresh", err)
	}
	return &LoginResult{
		SessionID:     sess.ID,
		AccountID:     sess.AccountID,
		IdentityToken: token,
		RefreshToken:  sess.RefreshToken,
		ExpiresAt:     s.tokenExpiry(now),
	}, nil
}

// Identify reconstructs the authority behind an identity token. Only System
// callers may resolve tokens. A token that fails verification softly, or
// references a missing or expired session, yields the anonymous authority
// rather than an error. A token signed with an unexpected algorithm fails
// hard with security.ErrAlgorithmMismatch.
func (s *Service) Identify(ctx context.Context, caller authz.Authority, token string) (authz.Authority, error) {
	if err := s.engine.RequireSystem(caller); err != nil {
		return authz.Authority{}, err
	}
	claims, err := s.codec.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrAlgorithmMismatch) {
			return authz.Authority{}, err
		}
		return authz.Authority{}, nil
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return authz.Authority{}, apperr.Internal("session.identify", err)
	}
	if sess == nil || sess.Expired(s.clock.Now()) {
		return authz.Authority{}, nil
	}
	// AuthTime is the original login time, not the last renewal; the
	// freshness window measures time since login.
	return authz.Authority{
		ID:       sess.AccountID,
		Roles:    sess.Roles,
		AuthTime: sess.CreatedAt.Unix(),
	}, nil
}

// LogoutByRefreshToken deletes the session holding the refresh token.
// Possession of the token is the credential; no further authorization is
// required and an unknown token is treated as already logged out.
func (s *Service) LogoutByRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperr.IllegalArgument("refresh token must not be empty")
	}
	if _, err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		return apperr.Internal("session.logout", err)
	}
	return nil
}

// LogoutByAccountID deletes every session of the account. The caller must be
// the account owner, System, or Admin.
func (s *Service) LogoutByAccountID(ctx context.Context, caller authz.Authority, accountID string) error {
	if accountID == "" {
		return apperr.IllegalArgument("account id must not be empty")
	}
	if _, err := uuid.Parse(accountID); err != nil {
		return apperr.IllegalArgument("account id %q is not a valid id", accountID)
	}
	if err := s.engine.Authorize(caller, accountID); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByAccountID(ctx, accountID); err != nil {
		return apperr.Internal("session.logout", err)
	}
	return nil
}

// InvalidateAccountSessions deletes every session of the account without an
// authorization check. It exists for the account service, which invalidates
// sessions after mutations as a best-effort hygiene step.
func (s *Service) InvalidateAccountSessions(ctx context.Context, accountID string) (int64, error) {
	return s.sessions.DeleteByAccountID(ctx, accountID)
}

// PurgeExpired deletes sessions whose hard lifetime has passed and returns
// the number removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, apperr.Internal("session.purge", err)
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", "count", n)
	}
	return n, nil
}

func (s *Service) signFor(sessionID string, now time.Time) (string, error) {
	return s.codec.Sign(sessionID, now, s.tokenExpiry(now))
}

// tokenExpiry returns the identity token expiry for a token issued at now.
// A zero tokenTTL disables expiry.
func (s *Service) tokenExpiry(now time.Time) time.Time {
	if s.tokenTTL == 0 {
		return time.Time{}
	}
	return now.Add(s.tokenTTL)
}
