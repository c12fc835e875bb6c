// Package handler exposes the account manager over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatekeeper/backend/internal/account/domain"
	"gatekeeper/backend/internal/account/service"
	"gatekeeper/backend/internal/apperr"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/server"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler returns the account HTTP handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register attaches the account routes to the given group.
func (h *Handler) Register(r *gin.RouterGroup) {
	accounts := r.Group("/accounts")
	accounts.POST("", h.create)
	accounts.GET("", h.readByName)
	accounts.GET("/:id", h.read)
	accounts.PATCH("/:id", h.update)
	accounts.DELETE("/:id", h.delete)
}

// accountResponse is the public view of an account. Credential material never
// leaves the service boundary.
type accountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Roles uint8  `json:"roles"`
}

func toResponse(a *domain.Account) accountResponse {
	return accountResponse{ID: a.ID, Name: a.Name, Roles: uint8(a.Roles)}
}

type createRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	account, err := h.svc.Create(c.Request.Context(), server.GetAuthority(c), req.Name, req.Password)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(account))
}

func (h *Handler) read(c *gin.Context) {
	account, err := h.svc.Read(c.Request.Context(), server.GetAuthority(c), c.Param("id"), "")
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(account))
}

func (h *Handler) readByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		server.WriteError(c, h.logger, apperr.IllegalArgument("name query parameter is required"))
		return
	}
	account, err := h.svc.Read(c.Request.Context(), server.GetAuthority(c), "", name)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(account))
}

type updateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Roles    *int64  `json:"roles"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.WriteError(c, h.logger, apperr.IllegalArgument("malformed request body"))
		return
	}
	params := service.UpdateParams{Name: req.Name, Password: req.Password}
	if req.Roles != nil {
		if !authz.ValidMaskValue(*req.Roles) {
			server.WriteError(c, h.logger, apperr.IllegalArgument("roles must be in [0, 255]"))
			return
		}
		mask := authz.RoleMask(*req.Roles)
		params.Roles = &mask
	}
	account, err := h.svc.Update(c.Request.Context(), server.GetAuthority(c), c.Param("id"), params)
	if err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(account))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), server.GetAuthority(c), c.Param("id")); err != nil {
		server.WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
