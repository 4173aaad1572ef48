package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/pkg/middleware"
)

// NewRouter registers the auth-service routes. loginLimit guards /login.
func NewRouter(h *AuthHandler, auth, loginLimit gin.HandlerFunc, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger("auth-service", log))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/register", h.Register)
	r.POST("/login", loginLimit, h.Login)
	r.POST("/refresh", h.Refresh)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/profile", auth, h.UpdateProfile)
	r.GET("/user-auth", auth, h.UserAuth)
	return r
}
