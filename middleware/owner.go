package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OwnerIDKey is the context key the owner id is stored under.
const OwnerIDKey = "owner_id"

// OwnerIDHeader carries the opaque owner id set by the upstream gateway.
// Identity itself is handled there; this service only scopes data by it.
const OwnerIDHeader = "X-Owner-ID"

// RequireOwner rejects requests without an owner id header.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(OwnerIDHeader)
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
			return
		}
		c.Set(OwnerIDKey, owner)
		c.Next()
	}
}

// OwnerIDFrom returns the owner id attached by RequireOwner.
func OwnerIDFrom(c *gin.Context) string {
	return c.GetString(OwnerIDKey)
}
