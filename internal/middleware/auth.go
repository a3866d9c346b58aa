package middleware

import (
	"net/http"
	"strings"

	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the identity provider's bearer token and stores
// the resulting Identity in the request context. It deliberately does not
// resolve a local user row: /users/sync must be reachable before one
// exists, so resolution happens per handler.
func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		identity, err := auth.VerifyIdentityToken(parts[1])

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ctx.Set(types.ContextIdentityKey, identity)
		ctx.Next()
	}
}
