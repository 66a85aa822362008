package middleware

import (
	"strings"

	"noxscan/config"
	"noxscan/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the Bearer JWT on protected routes. When no API
// key hash is configured the instance runs open and the check is skipped.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.GetConfig().Auth.APIKeyHash == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			utils.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("client", claims.Client)
		c.Next()
	}
}
