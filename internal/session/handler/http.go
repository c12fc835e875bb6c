// Package handler exposes the session manager over HTTP. Its sole job is
// translating requests to service calls and errors to status codes.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/server"
	"gatekeeper/backend/internal/session/service"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler returns the session HTTP handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register attaches the auth routes to the given group.
func (h *Handler) Register(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/identify", h.identify)
	auth.POST("/logout", h.logout)
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID     string `json:"session_id"`
	AccountID     string `json:"account_id"`
	IdentityToken string `json:"identity_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	result, err := h.svc.LoginWithCredentials(c.Request.Context(), server.GetAuthority(c), req.Name, req.Password)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toLoginResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	result, err := h.svc.LoginWithRefreshToken(c.Request.Context(), server.GetAuthority(c), req.RefreshToken)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toLoginResponse(result))
}

type identifyRequest struct {
	Token string `json:"token"`
}

type identifyResponse struct {
	AccountID string `json:"account_id,omitempty"`
	Roles     uint8  `json:"roles,omitempty"`
	AuthTime  int64  `json:"auth_time,omitempty"`
}

func (h *Handler) identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	caller, err := h.svc.Identify(c.Request.Context(), server.GetAuthority(c), req.Token)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, identifyResponse{
		AccountID: caller.ID,
		Roles:     uint8(caller.Roles),
		AuthTime:  caller.AuthTime,
	})
}

type logoutRequest struct {
	AccountID    string `json:"account_id"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	var err error
	switch {
	case req.RefreshToken != "":
		err = h.svc.LogoutByRefreshToken(c.Request.Context(), req.RefreshToken)
	case req.AccountID != "":
		err = h.svc.LogoutByAccountID(c.Request.Context(), server.GetAuthority(c), req.AccountID)
	default:
		err = apperr.IllegalArgument("account_id or refresh_token is required")
	}
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toLoginResponse(r *service.LoginResult) loginResponse {
	resp := loginResponse{
		SessionID:     r.SessionID,
		AccountID:     r.AccountID,
		IdentityToken: r.IdentityToken,
		RefreshToken:  r.RefreshToken,
	}
	if !r.ExpiresAt.IsZero() {
		resp.ExpiresAt = r.ExpiresAt.Unix()
	}
	return resp
}
