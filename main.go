package main

import (
	"context"
	"log"
	"time"

	"skylog/alert"
	"skylog/config"
	"skylog/database"
	"skylog/handlers"
	"skylog/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg := config.LoadServer()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	// Create context with timeout for initial connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	notifier := alert.NewNotifier(cfg.SMTP)
	if notifier == nil {
		log.Println("SMTP not configured, threshold alerting disabled")
	}

	r := gin.Default()

	r.GET("/health", handlers.HealthCheck)

	ingest := r.Group("/logs", middleware.GzipRequest(), middleware.APIKeyRequired(db))
	ingest.POST("/batch", handlers.IngestBatch(db))
	ingest.POST("/metrics", handlers.PushMetrics(db, notifier))

	read := r.Group("/logs", middleware.BearerRequired(db))
	read.GET("/search", handlers.SearchLogs(db))
	read.GET("/:id/context", handlers.LogContext(db))

	log.Printf("Server starting on %s", cfg.Addr)
	r.Run(cfg.Addr)
}
