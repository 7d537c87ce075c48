package restapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter configures and returns the Gin router for the market API.
func SetupRouter(handler *MarketHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/prices", handler.GetPricesHandler)
		v1.GET("/history", handler.GetHistoryHandler)
		v1.GET("/search", handler.SearchHandler)
		v1.GET("/currencies", handler.GetCurrenciesHandler)
		v1.GET("/tokens/popular", handler.GetPopularTokensHandler)
		v1.GET("/tokens/:id", handler.GetTokenHandler)
		v1.GET("/tokens/:id/similar", handler.GetSimilarTokensHandler)
		v1.GET("/tokens/:id/correlated", handler.GetCorrelatedTokensHandler)
	}

	router.GET("/health", handler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// ZapLoggerMiddleware logs each request with method, path, status and
// latency through the application zap logger.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	requestLogger := logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		requestLogger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()))
	}
}
