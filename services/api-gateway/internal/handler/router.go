package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/pkg/middleware"
	"agencysite.io/cms/services/api-gateway/internal/proxy"
)

// NewRouter serves /metrics and /healthz locally and proxies everything else
// through the routing table.
func NewRouter(table *proxy.Table, refresh gin.HandlerFunc, corsOrigins []string, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger("api-gateway", log), middleware.CORS(corsOrigins))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	r.NoRoute(refresh, table.Handler())
	return r
}
