package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"servio/internal/app"
	"servio/internal/config"
	"servio/internal/geo"
	"servio/internal/handler"
	internalRedis "servio/internal/redis"
	"servio/internal/repository/postgres"
	"servio/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	bookingRepo := postgres.NewBookingRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	areaRepo := postgres.NewServiceAreaRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	locationRepo := postgres.NewLocationRepository(db)

	region := geo.BoundingBox{
		MinLat: cfg.Region.MinLat,
		MaxLat: cfg.Region.MaxLat,
		MinLon: cfg.Region.MinLon,
		MaxLon: cfg.Region.MaxLon,
	}
	travel := geo.TravelPolicy{
		AvgSpeedKmh:    cfg.Travel.AvgSpeedKmh,
		BufferPerKmMin: cfg.Travel.BufferPerKmMin,
		MaxBufferMin:   cfg.Travel.MaxBufferMin,
	}

	// Initialize services.
	notificationService := service.NewNotificationService()
	pricingService := service.NewPricingService(cfg.Pricing)
	matchingService := service.NewMatchingService(cfg.Matching, region, travel, locationStore, cacheStore, catalogRepo, providerRepo, areaRepo, pricingService)
	bookingService := service.NewBookingService(region, cfg.Matching, bookingRepo, catalogRepo, reviewRepo, lockStore, cacheStore, pricingService, notificationService)
	areaService := service.NewAreaService(region, areaRepo, lockStore)
	locationService := service.NewLocationService(region, locationStore, locationRepo)

	// Initialize handlers.
	searchHandler := handler.NewSearchHandler(matchingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	providerHandler := handler.NewProviderHandler(locationService, areaService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		SearchHandler:   searchHandler,
		BookingHandler:  bookingHandler,
		ProviderHandler: providerHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
