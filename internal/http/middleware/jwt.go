package middleware

import (
	"net/http"
	"strings"

	"rps_arena/internal/domain"
	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// JWT requires a bearer token and stores the caller identity in the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "bearer token required"})
			return
		}

		identity, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity set by JWT.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return "", false
	}
	id, ok := v.(domain.Identity)
	return id, ok && id != ""
}
