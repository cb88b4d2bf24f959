package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
)

// Pinger checks one backing service.  Registered per dependency at wiring
// time; optional dependencies that are disabled simply are not registered.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
	logger  logging.Logger
}

// NewHealthHandler builds the handler.  checks maps a dependency name to its
// ping; readiness fails when any check fails.
func NewHealthHandler(checks map[string]Pinger, log logging.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 3 * time.Second,
		logger:  log.Named("health"),
	}
}

// Liveness handles GET /healthz: the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz: every registered dependency answers its
// ping.  A failing dependency yields 503 with the per-check detail.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	detail := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			detail[name] = err.Error()
			h.logger.Warn("readiness check failed",
				logging.String("dependency", name),
				logging.Err(err))
			continue
		}
		detail[name] = "ok"
	}

	body := gin.H{"checks": detail}
	if status == http.StatusOK {
		body["status"] = "ready"
	} else {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
