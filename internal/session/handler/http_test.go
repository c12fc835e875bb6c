package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	accountdomain "gatekeeper/backend/internal/account/domain"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/platform/clock"
	"gatekeeper/backend/internal/security"
	"gatekeeper/backend/internal/server"
	"gatekeeper/backend/internal/session/domain"
	"gatekeeper/backend/internal/session/service"
)

type memAccounts struct {
	mu     sync.Mutex
	byName map[string]*accountdomain.Account
}

func (r *memAccounts) GetByName(ctx context.Context, name string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name], nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]*domain.Session
}

func (r *memSessions) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.byID[s.ID] = &s2
	return nil
}

func (r *memSessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memSessions) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.RefreshToken == token {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSessions) DeleteByID(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

func (r *memSessions) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		if s.AccountID == accountID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *memSessions) DeleteByRefreshToken(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.RefreshToken == token {
			delete(r.byID, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memSessions) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// newTestServer wires the real session service over in-memory stores behind
// the shared router, with one seeded account.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	random := security.CryptoRandomSource{}
	hasher, err := security.NewHasher("sha512", random)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	codec, err := security.NewTokenCodec([]byte("test-secret-test-secret-test-sec"), "HS256")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	accounts := &memAccounts{byName: make(map[string]*accountdomain.Account)}
	salt, err := hasher.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	accounts.byName["qwer"] = &accountdomain.Account{
		ID:           uuid.New().String(),
		Name:         "qwer",
		PasswordHash: hasher.Hash("Qwer!234", salt),
		PasswordSalt: salt,
		Roles:        authz.RoleUser,
	}
	svc := service.NewService(
		&memSessions{byID: make(map[string]*domain.Session)},
		accounts,
		codec,
		hasher,
		random,
		authz.NewEngine(30*time.Minute),
		clock.System{},
		logger,
		720*time.Hour,
		15*time.Minute,
	)
	return server.New(logger, svc, NewHandler(svc, logger))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/auth/login", map[string]string{
		"name":     "qwer",
		"password": "Qwer!234",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var login struct {
		SessionID     string `json:"session_id"`
		AccountID     string `json:"account_id"`
		IdentityToken string `json:"identity_token"`
		RefreshToken  string `json:"refresh_token"`
		ExpiresAt     int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.IdentityToken == "" || login.RefreshToken == "" || login.SessionID == "" {
		t.Fatalf("incomplete login response: %+v", login)
	}
	if login.ExpiresAt == 0 {
		t.Error("expected a token expiry")
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/auth/refresh", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", w.Code, w.Body.String())
	}

	// Identity resolution is an internal operation; external callers are
	// denied even with a valid token in hand.
	w = doJSON(t, srv, http.MethodPost, "/v1/auth/identify", map[string]string{
		"token": login.IdentityToken,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("identify status = %d, want 403", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/auth/logout", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/auth/refresh", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("refresh after logout status = %d, want 403", w.Code)
	}
}

func TestAuthRoutes_Denials(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/auth/login", map[string]string{
		"name":     "qwer",
		"password": "wrong",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("bad password status = %d, want 403", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/auth/logout", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty logout status = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	srv.ServeHTTP(w2, req)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", w2.Code)
	}
}
