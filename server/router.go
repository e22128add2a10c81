package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog(logger))
	// 移动端直连，完全开放
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Disposition", "X-Request-ID"},
	}))

	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)
	router.POST("/remove-background", h.RemoveBackground)
	router.POST("/remove-background-batch", h.RemoveBackgroundBatch)

	return router
}
