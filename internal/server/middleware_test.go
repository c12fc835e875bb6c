package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/security"
)

// stubIdentifier maps known tokens to authorities; unknown tokens resolve to
// anonymous, mirroring the session service's soft-failure behavior.
type stubIdentifier struct {
	known map[string]authz.Authority
	hard  map[string]error
}

func (s *stubIdentifier) Identify(ctx context.Context, caller authz.Authority, token string) (authz.Authority, error) {
	if err, ok := s.hard[token]; ok {
		return authz.Authority{}, err
	}
	return s.known[token], nil
}

func newTestRouter(identifier Identifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authority(identifier))
	r.GET("/whoami", func(c *gin.Context) {
		a := GetAuthority(c)
		c.JSON(http.StatusOK, gin.H{"id": a.ID, "roles": uint8(a.Roles)})
	})
	return r
}

func TestAuthorityMiddleware(t *testing.T) {
	accountID := uuid.New().String()
	identifier := &stubIdentifier{
		known: map[string]authz.Authority{
			"good-token": {ID: accountID, Roles: authz.RoleUser, AuthTime: 100},
		},
		hard: map[string]error{
			"confused-token": security.ErrAlgorithmMismatch,
		},
	}
	router := newTestRouter(identifier)

	t.Run("no token is anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("valid token sets authority", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		body := w.Body.String()
		if want := accountID; !strings.Contains(body, want) {
			t.Errorf("body %q missing account id %q", body, want)
		}
	})

	t.Run("unknown token is anonymous not rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("algorithm mismatch aborts", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer confused-token")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearer(req); got != tt.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"illegal argument", apperr.IllegalArgument("bad input"), http.StatusBadRequest},
		{"access denied", apperr.ErrAccessDenied, http.StatusForbidden},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"conflict", apperr.Conflict("name taken"), http.StatusConflict},
		{"internal", apperr.Internal("op", io.ErrUnexpectedEOF), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(c, logger, tt.err)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.name == "internal" && strings.Contains(w.Body.String(), "unexpected EOF") {
				t.Error("internal error details leaked to the response body")
			}
		})
	}
}
