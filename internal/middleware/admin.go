package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wyn/internal/service"
)

// AdminRequired verifies the admin flag against the identity store rather
// than trusting the token claim. Use after AuthRequired.
func AdminRequired(guard *service.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if err := guard.RequireAdmin(p); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
