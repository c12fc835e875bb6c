// Package server assembles the gin router shared by the authentication and
// account services: authority middleware, metrics, health, and error mapping.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar attaches a handler group to the router. Implemented by the
// per-domain HTTP handlers.
type RouteRegistrar interface {
	Register(r *gin.RouterGroup)
}

// New builds the service router: recovery, metrics, authority reconstruction,
// health and metrics endpoints, then the v1 API group for each registrar.
func New(logger *slog.Logger, identifier Identifier, registrars ...RouteRegistrar) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(Authority(identifier))
	for _, reg := range registrars {
		reg.Register(v1)
	}
	return r
}
