package middleware

import (
	"net/http"
	"strings"

	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HostedAuthMiddleware validates access tokens issued by the hosted auth
// provider and stores the token subject under utils.OwnerContextKey.
//
// With optional set, requests without a token pass through anonymously,
// but a token that is present must still be valid.
func HostedAuthMiddleware(secret []byte, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if optional {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Missing Authorization header"})
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid Authorization header"})
			return
		}

		ownerID, err := utils.ExtractIDFromToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.GetLogger().Debug("auth: rejected token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token"})
			return
		}

		c.Set(utils.OwnerContextKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the authenticated owner, if any.
func OwnerID(c *gin.Context) (string, bool) {
	id := c.GetString(utils.OwnerContextKey)
	return id, id != ""
}
