// Package http assembles the gin route tree and the HTTP server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/handlers"
	"github.com/turtacn/CatalogMatch/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered, so a deployment
// without an import path simply does not expose it.
type RouterConfig struct {
	SuggestionHandler *handlers.SuggestionHandler
	CatalogHandler    *handlers.CatalogHandler
	HealthHandler     *handlers.HealthHandler

	MetricsHandler http.Handler

	Multitenancy config.MultitenancyConfig
	Mode         string
	MaxBodySize  int64
	Logger       logging.Logger
}

// NewRouter builds the complete route tree: public probes and metrics, then
// the tenant-scoped v1 API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	r := gin.New()
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.MaxBodySize > 0 {
		r.Use(limitBodySize(cfg.MaxBodySize))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Tenant(cfg.Multitenancy))
	{
		if cfg.SuggestionHandler != nil {
			api.POST("/suggestions", cfg.SuggestionHandler.Suggest)
		}
		if cfg.CatalogHandler != nil {
			api.POST("/catalog/entries", cfg.CatalogHandler.ImportEntries)
			api.POST("/catalog/cross-references", cfg.CatalogHandler.ImportCrossReferences)
		}
	}

	return r
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}

// limitBodySize caps request bodies so one oversized import cannot exhaust
// memory.
func limitBodySize(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
