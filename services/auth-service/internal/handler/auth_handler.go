package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/util"
	"agencysite.io/cms/services/auth-service/internal/domain"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	Service       domain.AuthService
	refreshMaxAge int // seconds
	secureCookies bool
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// NewAuthHandler creates a new AuthHandler. refreshMaxAge is the cookie
// lifetime in seconds and should match the refresh token TTL.
func NewAuthHandler(service domain.AuthService, refreshMaxAge int, secureCookies bool) *AuthHandler {
	return &AuthHandler{Service: service, refreshMaxAge: refreshMaxAge, secureCookies: secureCookies}
}

// Register handles POST /register for user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "error": err.Error()})
		return
	}
	user, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "user registered", "user": user})
}

// Login handles POST /login for user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "error": err.Error()})
		return
	}
	resp, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setRefreshCookie(c, resp.RefreshToken)
	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /refresh. The refresh token comes from the JSON body
// (gateway) or the refresh_token cookie (browser).
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookie)
	}
	if req.RefreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "refresh token required"})
		return
	}
	pair, err := h.Service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"token":         pair.AccessToken,
		"expires_at":    pair.ExpiresAt.Unix(),
		"refresh_token": pair.RefreshToken,
	})
}

// GetUser handles GET /users/:id to retrieve user info.
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}
	user, err := h.Service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateProfile handles PUT /profile for the authenticated user.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "error": err.Error()})
		return
	}
	user, err := h.Service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "profile updated", "user": user})
}

// UserAuth handles GET /user-auth; reaching it means the token is valid.
func (h *AuthHandler) UserAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, h.refreshMaxAge, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "refresh failed", "error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}
