package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/pkg/middleware"
)

// NewRouter registers the img-service routes. POST /images is for other
// services on the internal network; browsers upload through POST /upload.
func NewRouter(h *imageHandler, auth gin.HandlerFunc, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger("img-service", log))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/images", h.UploadImageHandler)
	r.DELETE("/images", h.DeleteImageHandler)
	r.POST("/upload", auth, h.UploadImageHandler)
	r.GET("/uploads/*name", h.ServeImageHandler)
	return r
}
