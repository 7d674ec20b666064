package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/auth"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

const claimsKey = "claims"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid token in the Authorization header. Both the
// "Bearer" and the "Token" scheme are accepted.
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return authenticate(a, false)
}

// WebSocketAuthMiddleware also accepts the token as a ?token= query
// parameter, since browsers cannot set headers on websocket requests.
func WebSocketAuthMiddleware(a Authenticator) gin.HandlerFunc {
	return authenticate(a, true)
}

func authenticate(a Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromHeader(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			utils.AbortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		utils.SetLogger(c, utils.Log(c).WithField("user_id", claims.UserID))
		c.Next()
	}
}

func tokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token)
	}
	return ""
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
