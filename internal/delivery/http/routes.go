package http

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/labelscan/backend/config"
	"github.com/labelscan/backend/web"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// ClientIP feeds the per-IP limit; forwarded headers count only from known proxies
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Printf("[Router] Invalid trusted proxies %v, trusting none: %v", cfg.Server.TrustedProxies, err)
		router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		// Submissions cost a model call, so only they are rate limited per IP
		api.POST("/scan-image", RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)), handler.ScanImage)
		api.GET("/scan-status", handler.ScanStatus)
		api.GET("/scan-events", handler.ScanEvents)

		products := api.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}
	}

	// PWA shell
	router.GET("/", web.ServeIndex)
	router.GET("/manifest.webmanifest", web.ServeManifest)
	router.GET("/sw.js", web.ServeServiceWorker)
	router.GET("/icon.svg", web.ServeIcon)

	return router
}
