package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/handler"
	"fleet/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	LocalityHandler *handler.LocalityHandler
	VehicleHandler  *handler.VehicleHandler
	TripHandler     *handler.TripHandler
	TicketHandler   *handler.TicketHandler
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

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Locality routes.
		localities := v1.Group("/localities")
		{
			localities.POST("", deps.LocalityHandler.Create)
			localities.GET("", deps.LocalityHandler.GetAll)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.VehicleHandler.Register)
			vehicles.GET("", deps.VehicleHandler.GetAll)
			vehicles.GET("/:id", deps.VehicleHandler.Get)
			vehicles.POST("/:id/downtime", deps.VehicleHandler.ScheduleDowntime)
			vehicles.POST("/:id/operative", deps.VehicleHandler.MarkOperative)
			vehicles.POST("/:id/disable", deps.VehicleHandler.Disable)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.POST("/:id/finalize", deps.TripHandler.Finalize)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
		}

		// Ticket routes.
		tickets := v1.Group("/tickets")
		{
			tickets.POST("/hold", deps.TicketHandler.Hold)
			tickets.GET("/:id", deps.TicketHandler.Get)
			tickets.POST("/:id/confirm", deps.TicketHandler.Confirm)
			tickets.POST("/:id/cancel", deps.TicketHandler.Cancel)
		}
	}

	return router
}
