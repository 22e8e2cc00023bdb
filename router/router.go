package router

import (
	"github.com/folio-site/folio-backend/config"
	_ "github.com/folio-site/folio-backend/docs"
	"github.com/folio-site/folio-backend/handlers"
	"github.com/folio-site/folio-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config          *config.Config
	FeedbackHandler *handlers.FeedbackHandler
	StreamHandler   *handlers.StreamHandler
	HealthHandler   *handlers.HealthHandler
	HTTPMetrics     *middleware.HTTPMetrics
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// FeedbackPrefixes are the mount points of the feedback routes. The portfolio
// frontend calls /api/feedback through its dev proxy and /feedback directly.
var FeedbackPrefixes = []string{"/feedback", "/api/feedback"}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger("/health/liveness", "/metrics"))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware())
	}
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))
	r.Use(middleware.ErrorHandler())

	// Health and Metrics Routes
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Swagger documentation
	if !deps.Config.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	for _, prefix := range FeedbackPrefixes {
		feedbackRoutes := r.Group(prefix)
		{
			feedbackRoutes.POST("", deps.FeedbackHandler.CreateFeedback)
			feedbackRoutes.GET("", deps.FeedbackHandler.ListFeedback)
			if deps.StreamHandler != nil {
				feedbackRoutes.GET("/stream", deps.StreamHandler.Stream)
			}
			feedbackRoutes.GET("/:id", deps.FeedbackHandler.GetFeedback)
			feedbackRoutes.DELETE("/:id", deps.FeedbackHandler.DeleteFeedback)
		}
	}

	return r
}
