package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/config"
	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/handlers"
	"github.com/agrisetu/marketplace-backend/internal/middleware"
	"github.com/agrisetu/marketplace-backend/internal/services"
	"github.com/agrisetu/marketplace-backend/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting AgriSetu Marketplace Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	bookingRepo := database.NewBookingRepository(db)
	itemRepo := database.NewItemRepository(db)
	damageRepo := database.NewDamageReportRepository(db)
	rejectionRepo := database.NewRejectionRepository(db)
	paymentRepo := database.NewPaymentEventRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	notifier := services.NewNotificationService(notificationRepo, cfg.Server.AdminUserID, logger)

	pricingService := services.NewPricingService(services.PricingConfig{
		HarvestSurge:        cfg.Pricing.HarvestSurge,
		SowingSurge:         cfg.Pricing.SowingSurge,
		HighDemandSurge:     cfg.Pricing.HighDemandSurge,
		HighDemandCount:     cfg.Pricing.HighDemandCount,
		ModerateDemandSurge: cfg.Pricing.ModerateDemandSurge,
		ModerateDemandCount: cfg.Pricing.ModerateDemandCount,
	})

	bookingService := services.NewBookingService(db, bookingRepo, notifier, logger)
	matchingService := services.NewMatchingService(db, bookingRepo, itemRepo, pricingService, notifier, logger)
	lifecycleService := services.NewLifecycleService(db, bookingRepo, itemRepo, rejectionRepo, paymentRepo, notifier,
		services.LifecycleConfig{
			RejectionThreshold:    cfg.Detection.RejectionThreshold,
			RejectionWindow:       time.Duration(cfg.Detection.RejectionWindowHours) * time.Hour,
			PaymentSpikeThreshold: cfg.Detection.PaymentSpikeThreshold,
			PaymentSpikeWindow:    time.Duration(cfg.Detection.PaymentSpikeWindowMin) * time.Minute,
		}, logger)
	disputeService := services.NewDisputeService(bookingRepo, damageRepo, notifier, logger)

	monitorService := services.NewMonitorService(bookingRepo, notifier,
		services.MonitorConfig{
			Interval:            time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,
			DelayGrace:          time.Duration(cfg.Monitor.DelayGraceMinutes) * time.Minute,
			CompensationPercent: cfg.Monitor.CompensationPercent,
			PendingHoldTTL:      time.Duration(cfg.Monitor.PendingHoldHours) * time.Hour,
		}, logger)

	// Start the background monitor on its own schedule
	scheduler := services.NewSchedulerService(monitorService, logger)
	if err := scheduler.Start(time.Duration(cfg.Monitor.IntervalSeconds) * time.Second); err != nil {
		logger.Fatalf("Failed to start background monitor: %v", err)
	}
	defer scheduler.Stop()

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, matchingService, lifecycleService)
	disputeHandler := handlers.NewDisputeHandler(disputeService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		api.POST("/bookings", bookingHandler.CreateBookings)
		api.GET("/bookings", bookingHandler.ListBookings)
		api.GET("/bookings/:id", bookingHandler.GetBooking)
		api.POST("/bookings/:id/accept", bookingHandler.AcceptBooking)
		api.POST("/bookings/:id/reject", bookingHandler.RejectBooking)
		api.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		api.POST("/bookings/:id/arrived", bookingHandler.MarkArrived)
		api.POST("/bookings/:id/verify-otp", bookingHandler.VerifyOTP)
		api.POST("/bookings/:id/complete", bookingHandler.CompleteBooking)
		api.POST("/bookings/:id/payment", bookingHandler.MakeFinalPayment)

		api.POST("/bookings/:id/dispute", disputeHandler.RaiseDispute)
		api.POST("/bookings/:id/dispute/resolve", middleware.RequireRole("admin"), disputeHandler.ResolveDispute)
		api.POST("/damage-reports", disputeHandler.ReportDamage)
		api.POST("/damage-reports/:id/resolve", middleware.RequireRole("admin"), disputeHandler.ResolveDamageClaim)

		api.GET("/notifications", notificationHandler.ListNotifications)
		api.POST("/notifications/:id/read", notificationHandler.MarkNotificationRead)
	}

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
