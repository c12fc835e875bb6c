package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	// AccessDenials counts authorization failures across both services.
	AccessDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "access_denials_total",
		Help:      "Requests rejected with access denied.",
	})

	// SessionsPurged counts sessions removed by the reaper.
	SessionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "sessions_purged_total",
		Help:      "Expired sessions removed by the reaper.",
	})
)

// Metrics returns middleware recording per-route request counts.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
