package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akozyrev/stockcast/config"
	"github.com/akozyrev/stockcast/internal/cache"
	"github.com/akozyrev/stockcast/internal/database"
	"github.com/akozyrev/stockcast/internal/eodhd"
	"github.com/akozyrev/stockcast/internal/forecast"
	"github.com/akozyrev/stockcast/internal/handlers"
	"github.com/akozyrev/stockcast/internal/middleware"
	"github.com/akozyrev/stockcast/internal/repository"
	"github.com/akozyrev/stockcast/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize the EODHD client when a token is configured
	var market services.MarketData
	if cfg.EODHDToken != "" {
		market = eodhd.NewClient(cfg.EODHDToken)
	} else {
		log.Warn("EODHD_TOKEN not set, price sync disabled")
	}

	// Initialize the forecast model: remote server when configured,
	// built-in linear trend otherwise
	var model forecast.Model
	if cfg.ModelURL != "" {
		model = forecast.NewClient(cfg.ModelName, cfg.ModelURL)
	} else {
		model = forecast.NewTrendModel(cfg.ModelName)
	}

	// Initialize caches
	memCache := cache.NewMemoryCache(5 * time.Minute)

	// Initialize repositories
	tickerRepo := repository.NewTickerRepository(db.Pool)
	priceRepo := repository.NewPriceRepository(db.Pool)
	actionsRepo := repository.NewCorporateActionsRepository(db.Pool)
	forecastRepo := repository.NewForecastRepository(db.Pool)

	// Initialize services
	tickerSvc := services.NewTickerService(tickerRepo, memCache)
	priceSvc := services.NewPriceService(tickerRepo, priceRepo, actionsRepo)
	forecastSvc := services.NewForecastService(tickerRepo, priceRepo, forecastRepo, model, cfg.LookbackDays, cfg.MinBars)
	adminSvc := services.NewAdminService(tickerRepo, priceRepo, actionsRepo, market)
	backfillSvc := services.NewBackfillService(forecastRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(tickerRepo, priceRepo)
	tickerHandler := handlers.NewTickerHandler(tickerSvc, priceSvc)
	forecastHandler := handlers.NewForecastHandler(forecastSvc)
	adminHandler := handlers.NewAdminHandler(adminSvc, backfillSvc, memCache)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.RequestLogger())

	// API routes
	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.Health)
	api.GET("/tickers", tickerHandler.List)
	api.GET("/tickers/:symbol/prices", tickerHandler.GetPrices)
	api.POST("/forecast/portfolio", forecastHandler.ForecastPortfolio)
	api.GET("/forecast/runs/:id", forecastHandler.GetRun)

	// Admin routes
	admin := router.Group("/admin")
	admin.POST("/tickers/import", adminHandler.ImportTickers)
	admin.DELETE("/tickers/:symbol", adminHandler.DeactivateTicker)
	admin.POST("/prices/sync", adminHandler.SyncPrices)
	admin.POST("/backfill-predictions", adminHandler.BackfillPredictions)

	// Nightly back-fill of realized closes into predictions
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.BackfillSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := backfillSvc.Run(jobCtx); err != nil {
			log.Errorf("scheduled backfill failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid backfill schedule %q: %v", cfg.BackfillSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	fmt.Println("Server exited")
}
