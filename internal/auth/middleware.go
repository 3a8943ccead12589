package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		if !authenticate(c, jwtManager, header) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets guests through. A token, when sent, must still be valid.
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		if !authenticate(c, jwtManager, header) {
			return
		}
		c.Next()
	}
}

// RequireAdmin ensures the authenticated caller carries the admin role.
// It MUST be used after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtManager *JWTManager, header string) bool {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return false
	}

	claims, err := jwtManager.ParseAndValidate(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return false
	}

	// Store user info into Gin context for later handlers.
	c.Set(userIDKey, claims.UserID)
	c.Set(userEmailKey, claims.Email)
	c.Set(userRoleKey, claims.Role)
	return true
}
