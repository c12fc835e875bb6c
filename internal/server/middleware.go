package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gatekeeper/backend/internal/authz"
)

const bearerPrefix = "bearer "

// authorityKey is the gin context key the reconstructed caller is stored under.
const authorityKey = "gatekeeper_authority"

// Identifier resolves an identity token into an authority. Satisfied by the
// session service; the middleware calls it as the trusted internal System
// caller.
type Identifier interface {
	Identify(ctx context.Context, caller authz.Authority, token string) (authz.Authority, error)
}

// systemCaller is the internal authority the middleware identifies with.
var systemCaller = authz.Authority{Roles: authz.RoleSystem}

// Authority returns middleware that reconstructs the caller's authority from
// the Bearer token. A missing or softly-invalid token yields the anonymous
// authority; per-operation authorization is the services' job, not the
// middleware's. A token signed with an unexpected algorithm aborts with 401.
func Authority(identifier Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.Request)
		if token == "" {
			c.Set(authorityKey, authz.Authority{})
			c.Next()
			return
		}
		caller, err := identifier.Identify(c.Request.Context(), systemCaller, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization"})
			return
		}
		c.Set(authorityKey, caller)
		c.Next()
	}
}

// GetAuthority returns the caller authority set by the Authority middleware.
// Anonymous when the middleware did not run or no token was presented.
func GetAuthority(c *gin.Context) authz.Authority {
	v, ok := c.Get(authorityKey)
	if !ok {
		return authz.Authority{}
	}
	a, _ := v.(authz.Authority)
	return a
}

// extractBearer returns the Bearer token from the request, or "" if missing
// or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
