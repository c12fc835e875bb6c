package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatekeeper/backend/internal/apperr"
)

// WriteError maps the error taxonomy to HTTP status codes. Domain errors keep
// their message; everything else becomes an opaque 500 so infrastructure
// details never leak to callers.
func WriteError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrIllegalArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrAccessDenied):
		AccessDenials.Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
