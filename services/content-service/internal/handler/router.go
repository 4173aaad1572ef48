package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/pkg/middleware"
)

const serviceName = "content-service"

// NewRouter wires every content-service route. auth guards the editor routes.
func NewRouter(blogs *BlogHandler, services *ServiceHandler, uploads *UploadHandler, auth gin.HandlerFunc, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(serviceName, log))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	b := r.Group("/blog")
	b.GET("", blogs.ListPublished)
	b.GET("/categories-tags", blogs.Taxonomy)
	b.GET("/:slug", blogs.GetBySlug)
	{
		admin := b.Group("", auth)
		admin.POST("", blogs.Create)
		admin.POST("/upload", uploads.Upload)
		admin.GET("/admin/all", blogs.ListAll)
		admin.GET("/admin/stats", blogs.Stats)
		admin.GET("/admin/:id", blogs.GetByID)
		admin.PUT("/:id", blogs.Update)
		admin.DELETE("/:id", blogs.Delete)
	}

	s := r.Group("/services")
	s.GET("", services.ListActive)
	s.GET("/categories-tags", services.Taxonomy)
	s.GET("/:slug", services.GetBySlug)
	s.POST("/:slug/inquiry", services.Inquiry)
	{
		admin := s.Group("", auth)
		admin.POST("", services.Create)
		admin.POST("/upload", uploads.Upload)
		admin.GET("/admin/all", services.ListAll)
		admin.GET("/admin/stats", services.Stats)
		admin.GET("/admin/:id", services.GetByID)
		admin.PUT("/bulk/update", services.BulkUpdate)
		admin.PUT("/:id", services.Update)
		admin.DELETE("/:id", services.Delete)
	}
	return r
}
