package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"noxscan/api"
	"noxscan/config"
	"noxscan/database"
	"noxscan/router"
	"noxscan/service"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := "config/config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	cfg := config.LoadConfig(configPath)

	gin.SetMode(cfg.Server.Mode)

	database.InitMongoDB(&cfg.MongoDB)
	defer database.CloseMongoDB()

	database.InitRedis(&cfg.Redis)
	defer database.CloseRedis()

	// WebSocket hub for real-time scan progress
	hub := api.NewHub()
	go hub.Run()

	scanService := service.NewScanService(hub.PublishProgress)
	exportService := service.NewExportService(cfg.Scanner.ExportDir)

	// Periodic scans of configured ranges
	scheduleService := service.NewScheduleService(scanService)
	if err := scheduleService.Start(); err != nil {
		log.Printf("Warning: failed to start scheduler: %v", err)
	}
	defer scheduleService.Stop()

	r := router.SetupRouter(scanService, exportService, hub)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)

	go func() {
		if err := r.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
