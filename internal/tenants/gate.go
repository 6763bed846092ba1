package tenants

import (
	"net/http"

	"crm_portal_backend/internal/tenants/service"
	"crm_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Gate returns middleware that rejects requests scoped to a
// deactivated tenant. Global admins and callers without a tenant pass
// through untouched; the activity check goes through the allow-list
// cache, not the database.
func Gate(allowlist *service.Allowlist) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			c.Next()
			return
		}
		if identity.TenantType() == "GLOBAL_ADMIN" || identity.TenantID() == nil {
			c.Next()
			return
		}

		if !allowlist.IsAllowed(c.Request.Context(), *identity.TenantID()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant is deactivated"})
			return
		}

		c.Next()
	}
}
