// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/pkg/response"
)

// Pinger is a dependency that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler answers /health and /ready
type Handler struct {
	service string
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHandler creates a Handler. Nil checks are ignored.
func NewHandler(service string, checks map[string]Pinger) *Handler {
	h := &Handler{service: service, checks: map[string]Pinger{}, timeout: 2 * time.Second}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// Health reports that the process is up
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(gin.H{"status": "ok", "service": h.service}))
}

// Ready pings every dependency
// GET /ready
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	if status != http.StatusOK {
		resp := response.ServiceUnavailable("dependency check failed")
		resp.Data = results
		c.JSON(status, resp)
		return
	}
	c.JSON(status, response.Success(gin.H{"status": "ready", "checks": results}))
}

// Register mounts both probes on r
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}
