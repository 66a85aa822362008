package router

import (
	"noxscan/api"
	"noxscan/middleware"
	"noxscan/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires handlers and middleware. The hub carries scan progress
// to WebSocket subscribers.
func SetupRouter(scanService *service.ScanService, exportService *service.ExportService, hub *api.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.AuditLogMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		authHandler := api.NewAuthHandler()
		apiGroup.POST("/auth/token", authHandler.Token)

		protected := apiGroup.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			scanHandler := api.NewScanHandler(scanService, exportService)
			scanGroup := protected.Group("/scans")
			{
				scanGroup.POST("", scanHandler.StartScan)
				scanGroup.GET("", scanHandler.ListScans)
				scanGroup.GET("/latest", scanHandler.GetLatest)
				scanGroup.GET("/:id", scanHandler.GetScan)
				scanGroup.DELETE("/:id", scanHandler.DeleteScan)
				scanGroup.GET("/:id/topology", scanHandler.GetScanTopology)
				scanGroup.POST("/:id/export", scanHandler.ExportScan)
			}

			protected.GET("/topology", scanHandler.GetTopology)
			protected.GET("/ws", hub.HandleWebSocket)
		}
	}

	return r
}
