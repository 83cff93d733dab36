package main

import (
	"context"
	"log"
	"time"

	"loyalty_engine/internal/config"
	"loyalty_engine/internal/database"
	"loyalty_engine/internal/handlers"
	"loyalty_engine/internal/migrations"
	"loyalty_engine/internal/redis"
	"loyalty_engine/internal/repository"
	"loyalty_engine/internal/services"
	"loyalty_engine/internal/worker"
	"loyalty_engine/pkg/notify"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis (job queue + per-order locks)
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Optional low-stock webhook
	var notifier *notify.Client
	if cfg.LowStockWebhookURL != "" {
		notifier = notify.NewClient(cfg.LowStockWebhookURL)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	// Initialize services
	lockTTL := time.Duration(cfg.OrderLockTTLSeconds) * time.Second
	rewardService := services.NewRewardService(db, redisClient, lockTTL, logger)
	inventoryService := services.NewInventoryService(db, redisClient, lockTTL, notifier, logger)
	loyaltyService := services.NewLoyaltyService(customerRepo, ledgerRepo)

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(rewardService, inventoryService, loyaltyService, redisClient, cfg.WorkerQueue)

	// Background worker for queued close events
	if cfg.WorkerEnabled {
		processor := worker.NewProcessor(redisClient, cfg.WorkerQueue, rewardService, inventoryService, logger)
		go processor.Start(context.Background())
	}

	// Setup routes
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/orders/:id/apply-rewards", apiHandler.ApplyRewards)
		api.POST("/orders/:id/deduct-stock", apiHandler.DeductStock)
		api.POST("/jobs/process-order", apiHandler.EnqueueProcessOrder)

		api.GET("/inventory/low-stock", apiHandler.LowStockAlerts)
		api.GET("/customers/:id/loyalty", apiHandler.LoyaltySummary)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
