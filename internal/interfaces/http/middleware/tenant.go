package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CatalogMatch/internal/config"
)

// tenantKey is the gin context key the resolved tenant is stored under.
const tenantKey = "tenant_id"

// tenantIDPattern bounds tenant identifiers to header-safe, index-safe names.
var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Tenant resolves the tenant for a request: the configured header first, the
// tenant_id query parameter second, the configured default last.  Requests
// with no resolvable tenant or a malformed identifier are rejected with 400.
func Tenant(cfg config.MultitenancyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader(cfg.TenantHeader))
		if tenant == "" {
			tenant = strings.TrimSpace(c.Query("tenant_id"))
		}
		if tenant == "" {
			tenant = cfg.DefaultTenant
		}
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "COMMON_002",
				"message": "tenant is required: set the " + cfg.TenantHeader + " header",
			})
			return
		}
		if !tenantIDPattern.MatchString(tenant) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "COMMON_010",
				"message": "tenant identifier is malformed",
			})
			return
		}

		c.Set(tenantKey, tenant)
		c.Header(cfg.TenantHeader, tenant)
		c.Next()
	}
}

// TenantFromContext returns the tenant resolved by the Tenant middleware, or
// "" when the middleware did not run.
func TenantFromContext(c *gin.Context) string {
	return c.GetString(tenantKey)
}
