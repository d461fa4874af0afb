package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler       *handler.TripHandler
	BookingHandler    *handler.BookingHandler
	SuggestionHandler *handler.SuggestionHandler
	RiderHandler      *handler.RiderHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check and metrics.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.PublishTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/upcoming", deps.TripHandler.GetUpcoming)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/requests", deps.BookingHandler.CreateRequest)
			trips.GET("/:id/requests", deps.BookingHandler.ListTripRequests)
		}

		// Booking request routes.
		requests := v1.Group("/requests")
		{
			requests.GET("/:id", deps.BookingHandler.GetRequest)
			requests.POST("/:id/accept", deps.BookingHandler.AcceptRequest)
			requests.POST("/:id/reject", deps.BookingHandler.RejectRequest)
			requests.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			requests.POST("/:id/withdraw", deps.BookingHandler.WithdrawRequest)
			requests.POST("/:id/checkin", deps.BookingHandler.CheckIn)
			requests.POST("/:id/checkout", deps.BookingHandler.CheckOut)
		}

		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("/:id/location", deps.RiderHandler.UpdateLocation)
			riders.GET("/:id/suggestions", deps.SuggestionHandler.GetSuggestions)
		}
	}

	return router
}
