package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/api/middleware"
	"github.com/liliang-cn/chatrelay/internal/api/upload"
	"github.com/liliang-cn/chatrelay/internal/api/ws"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	wsHandler *ws.Handler,
	uploadHandler *upload.Handler,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	wsHandler.RegisterRoutes(v1)
	uploadHandler.RegisterRoutes(v1)

	return r
}
