package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

// RequireAdmin runs after AuthMiddleware and only lets admin users through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			utils.AbortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !claims.IsAdmin {
			utils.AbortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
