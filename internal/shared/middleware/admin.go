package middleware

import (
	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/response"
)

// AdminOnly must run after AuthMiddleware. It blocks everyone whose role
// claim is not administrator.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		if role != "admin" {
			response.Forbidden(c, "administrator role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
