package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"agencysite.io/cms/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware returns a Gin middleware that validates JWT tokens and injects claims into the context.
func AuthMiddleware(tokenManager jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing or invalid Authorization header"})
			return
		}
		claims, err := tokenManager.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "access token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid access token"})
			return
		}
		// Inject claims for downstream handlers
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Request.Header.Set("X-User-Id", strconv.FormatUint(uint64(claims.UserID), 10))
		c.Request.Header.Set("X-Username", claims.Username)
		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
