package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"servio/internal/domain"
)

const (
	userIDHeader        = "X-User-ID"
	userRoleHeader      = "X-User-Role"
	accountActiveHeader = "X-Account-Active"

	identityContextKey = "identity"
)

// IdentityMiddleware extracts the caller identity from gateway-verified
// headers and attaches it to the request context. Authentication itself
// happens upstream; this core only trusts the already-verified claims.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		role := domain.Role(c.GetHeader(userRoleHeader))

		if userID == "" || !domain.ValidRole(role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}

		active := c.GetHeader(accountActiveHeader) != "false"
		if !active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account inactive"})
			return
		}

		c.Set(identityContextKey, domain.Identity{
			UserID:        userID,
			Role:          role,
			AccountActive: active,
		})
		c.Next()
	}
}

// IdentityFromContext returns the caller identity set by IdentityMiddleware.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
