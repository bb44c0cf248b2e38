package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"core/internal/activity"
	"core/internal/config"
	"core/internal/handler"
	"core/internal/repository"
	"core/internal/service"
	"core/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Brokerage Assistant Backend")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Background workers stop when this context is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store with periodic eviction sweep
	sessions := session.NewStore(cfg.Assistant.SessionTTL, session.SystemClock())
	go sessions.Run(ctx, cfg.Assistant.SweepInterval)
	log.Printf("✅ Session store initialized (TTL: %s, sweep: %s)",
		cfg.Assistant.SessionTTL, cfg.Assistant.SweepInterval)

	// Live activity feed hub
	hub := activity.NewHub()
	go hub.Run(ctx)

	// Initialize services
	assistant := service.NewAssistant(
		repo,
		sessions,
		hub,
		session.SystemClock(),
		cfg.Assistant.VisitsLimit,
		cfg.Assistant.QueryTimeout,
	)

	log.Println("✅ Services initialized")

	// Initialize handlers
	assistantHandler := handler.NewAssistantHandler(assistant)
	activityHandler := handler.NewActivityHandler(hub, cfg.Server.AllowedOrigins)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "brokerage-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/assistant/message", assistantHandler.Message)
		apiV1.POST("/assistant/property/confirm", assistantHandler.ConfirmProperty)
	}

	// Live activity feed (WebSocket)
	router.GET("/ws/activity", activityHandler.Feed)

	// Serve static files (back-office frontend)
	setupStaticFiles(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API base: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	cancel()
	log.Println("✅ Server stopped")
}
