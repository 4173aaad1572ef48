package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/middleware"
	"agencysite.io/cms/services/api-gateway/internal/client"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
	refreshedFlag = "X-Refreshed"
)

// RefreshOptions controls the cookies written after a refresh.
type RefreshOptions struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool
}

// AuthOrRefreshMiddleware swaps an expired bearer token for a fresh one using
// the refresh_token cookie, then lets the request through. Requests without a
// bearer token, or with a valid one, pass untouched; the upstream service
// still enforces authentication itself.
func AuthOrRefreshMiddleware(tokenManager jwt.TokenManager, auth client.AuthClient, opts RefreshOptions, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := middleware.BearerToken(c)
		if !ok {
			c.Next()
			return
		}
		_, err := tokenManager.ValidateAccessToken(tokenString)
		if err == nil || !errors.Is(err, jwt.ErrTokenExpired) {
			c.Next()
			return
		}
		// prevent multiple refresh attempts for the same request
		if c.GetHeader(refreshedFlag) == "1" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token refresh failed previously"})
			return
		}
		refreshToken, errCookie := c.Cookie(refreshCookie)
		if errCookie != nil || refreshToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "access token expired"})
			return
		}

		tokens, err := auth.Refresh(c.Request.Context(), refreshToken)
		if err != nil {
			if errors.Is(err, client.ErrRefreshRejected) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "refresh failed"})
				return
			}
			log.Warnw("token refresh failed", "error", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"success": false, "message": "failed to refresh token"})
			return
		}
		claims, err := tokenManager.ValidateAccessToken(tokens.AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "refreshed token invalid"})
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(accessCookie, tokens.AccessToken, int(opts.AccessTokenTTL.Seconds()), "/", "", opts.SecureCookies, true)
		if tokens.RefreshToken != "" {
			c.SetCookie(refreshCookie, tokens.RefreshToken, int(opts.RefreshTokenTTL.Seconds()), "/", "", opts.SecureCookies, true)
		}
		c.Request.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		// mark request as refreshed to avoid loops
		c.Request.Header.Set(refreshedFlag, "1")
		c.Writer.Header().Set(refreshedFlag, "1")
		log.Debugw("access token refreshed", "user_id", claims.UserID)
		c.Next()
	}
}
