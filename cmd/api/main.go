package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/facturado/billing-api/docs" // Swagger docs
	"github.com/facturado/billing-api/internal/config"
	"github.com/facturado/billing-api/internal/database"
	"github.com/facturado/billing-api/internal/handlers"
	"github.com/facturado/billing-api/internal/jobs"
	"github.com/facturado/billing-api/internal/middleware"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/internal/services"
	"github.com/facturado/billing-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Billing API
// @version 1.0
// @description REST API for invoicing, receipts and payment reconciliation

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.Debug)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/audits", h.Audit.Index)
			}

			// Billing roles (accountant and admin manage documents)
			billing := protected.Group("")
			billing.Use(middleware.RequireRole("admin", "accountant"))
			{
				// Invoices. Static routes first so "stats" is not matched
				// as :invoice_id.
				billing.GET("/invoices/stats", h.Invoice.Stats)
				billing.GET("/invoices", h.Invoice.Index)
				billing.POST("/invoices", h.Invoice.Create)
				billing.GET("/invoices/:invoice_id", h.Invoice.Show)
				billing.PUT("/invoices/:invoice_id", h.Invoice.Update)
				billing.DELETE("/invoices/:invoice_id", h.Invoice.Delete)
				billing.POST("/invoices/:invoice_id/send", h.Invoice.Send)
				billing.POST("/invoices/:invoice_id/cancel", h.Invoice.Cancel)
				billing.GET("/invoices/:invoice_id/pdf", h.Invoice.DownloadPDF)

				// Receipts
				billing.GET("/receipts", h.Receipt.Index)
				billing.POST("/receipts", h.Receipt.Create)
				billing.GET("/receipts/:receipt_id", h.Receipt.Show)
				billing.PUT("/receipts/:receipt_id", h.Receipt.Update)
				billing.DELETE("/receipts/:receipt_id", h.Receipt.Delete)

				// Payment records
				billing.GET("/payments/statistics", h.Payment.Statistics)
				billing.GET("/payments/export/csv", h.Payment.ExportCSV)
				billing.GET("/payments/export/xlsx", h.Payment.ExportXLSX)
				billing.GET("/payments", h.Payment.Index)
				billing.POST("/payments", h.Payment.Create)
				billing.GET("/payments/:payment_id", h.Payment.Show)

				// Clients
				billing.GET("/clients", h.Client.Index)
				billing.POST("/clients", h.Client.Create)
				billing.GET("/clients/:client_id", h.Client.Show)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	if cfg.OverdueSweepMinutes <= 0 {
		logger.Info("Overdue sweep disabled")
		return
	}
	interval := time.Duration(cfg.OverdueSweepMinutes) * time.Minute

	// Flag sent invoices past their due date. Runs once at startup so a
	// restarted process does not leave stale statuses for a full interval.
	worker.ScheduleEveryImmediate(interval, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping overdue invoices...")
		return svcs.Invoice.MarkOverdueInvoices(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
