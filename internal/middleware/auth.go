package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wyn/config"
	"wyn/internal/auth"
	"wyn/internal/service"
)

const principalKey = "principal"

// AuthRequired validates the bearer token and stores the Principal in the
// request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(principalKey, service.Principal{
			ID:         claims.PrincipalID,
			Type:       claims.PrincipalType,
			Email:      claims.Email,
			AdminClaim: claims.IsAdmin,
		})
		c.Next()
	}
}

// GetPrincipal returns the authenticated principal. Must run after
// AuthRequired.
func GetPrincipal(c *gin.Context) service.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(service.Principal)
	return p
}

// RequireType restricts a route to one principal type.
func RequireType(principalType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p.Type != principalType {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
