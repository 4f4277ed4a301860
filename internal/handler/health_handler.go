package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency that can report its health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health endpoint.
type HealthHandler struct {
	deps       map[string]Pinger
	registered func() []models.GatewayType
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(deps map[string]Pinger, registered func() []models.GatewayType) *HealthHandler {
	return &HealthHandler{deps: deps, registered: registered}
}

// GetHealth responds with dependency status and registered gateways. Any
// failing dependency makes the service report 503.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	deps := gin.H{}
	for name, p := range h.deps {
		if err := p.PingContext(ctx); err != nil {
			healthy = false
			deps[name] = "disconnected"
			continue
		}
		deps[name] = "connected"
	}

	var gateways []models.GatewayType
	if h.registered != nil {
		gateways = h.registered()
	}

	data := gin.H{
		"status":       "healthy",
		"version":      "1.0.0",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
		"gateways":     gateways,
	}
	if !healthy {
		data["status"] = "degraded"
		utils.ErrorWithData(c, http.StatusServiceUnavailable, "DEPENDENCY_DOWN", "Service is degraded", data)
		return
	}
	utils.Success(c, http.StatusOK, "Service is healthy", data)
}
