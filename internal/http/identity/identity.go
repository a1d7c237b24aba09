package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Authentication happens upstream; this package only reads the identity
// headers the gateway injects after verifying the token.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"

	RoleAdmin = "ADMIN"
)

func UserID(c *gin.Context) string { return c.GetHeader(HeaderUserID) }
func Role(c *gin.Context) string   { return c.GetHeader(HeaderRole) }

// RequireAuth rejects requests without an authenticated user id.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects non-admin users.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if Role(c) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}
