package main

import (
	"context"
	"log"
	"os"
	"strconv"

	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/labstack/echo/v4"

	"invoicedesk/internal/caching"
	"invoicedesk/internal/config"
	"invoicedesk/internal/handlers"
	"invoicedesk/internal/jobs/background"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/repositories"
	"invoicedesk/internal/services"
	"invoicedesk/pkg/database"
)

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Mail gateway configuration
	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		log.Fatalf("Failed to load mail configuration: %v", err)
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Create repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	eventRepo := repositories.NewWebhookEventRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	mailer := services.NewResendMailer(mailCfg.APIKey, mailCfg.BaseURL)
	pdfSvc := services.NewPDFService()
	invoiceSvc := services.NewInvoiceService(invoiceRepo, eventRepo, mailer, pdfSvc, storageSvc, cacheSvc, mailCfg)
	webhookSvc, err := services.NewWebhookService(invoiceRepo, eventRepo, mailer, mailCfg.WebhookSecret)
	if err != nil {
		log.Fatalf("Failed to initialize webhook service: %v", err)
	}

	// Create handlers
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc)
	webhookHandlers := handlers.NewWebhookHandlers(webhookSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	jobScheduler := background.NewJobScheduler(invoiceRepo, mailer, cacheSvc)
	if err := jobScheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer jobScheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// Provider webhooks authenticate by signature, not JWT
	e.POST("/webhooks/resend", webhookHandlers.ResendWebhook)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTMiddleware(jwtSecret))

	v1.GET("/invoices", invoiceHandlers.ListInvoices)
	v1.POST("/invoices", invoiceHandlers.CreateInvoice)
	v1.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	v1.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	v1.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	v1.POST("/invoices/:id/send", invoiceHandlers.ResendInvoice)
	v1.POST("/invoices/:id/toggle-paid", invoiceHandlers.TogglePaid)
	v1.POST("/invoices/:id/cancel-reminder", invoiceHandlers.CancelReminder)
	v1.GET("/invoices/:id/events", invoiceHandlers.ListInvoiceEvents)
	v1.POST("/invoices/:id/pdf", invoiceHandlers.ArchiveInvoicePDF)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
