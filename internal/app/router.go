package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"servio/internal/handler"
	"servio/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	SearchHandler   *handler.SearchHandler
	BookingHandler  *handler.BookingHandler
	ProviderHandler *handler.ProviderHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes. All carry a gateway-verified identity.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware())
	{
		// Provider search.
		v1.POST("/search", deps.SearchHandler.Search)

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.Create)
			bookings.GET("", deps.BookingHandler.List)
			bookings.GET("/:id", deps.BookingHandler.Get)
			bookings.POST("/:id/status", deps.BookingHandler.UpdateStatus)
			bookings.GET("/:id/history", deps.BookingHandler.History)
			bookings.POST("/:id/review", deps.BookingHandler.SubmitReview)
		}

		// Provider location and coverage routes.
		providers := v1.Group("/providers")
		{
			providers.POST("/location", deps.ProviderHandler.UpdateLocation)
			providers.POST("/offline", deps.ProviderHandler.GoOffline)
			providers.GET("/:id/location", deps.ProviderHandler.GetLocation)
			providers.POST("/areas", deps.ProviderHandler.AddArea)
			providers.GET("/:id/areas", deps.ProviderHandler.ListAreas)
			providers.DELETE("/areas/:areaID", deps.ProviderHandler.RemoveArea)
		}
	}

	return router
}
