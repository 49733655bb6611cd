package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/handler"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/middleware"
	"github.com/stemsi/quizroom/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// SetupRouter configures the ops endpoints and the WebSocket gateway.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	ops := router.Group("/")
	ops.Use(middleware.NoStore())
	{
		ops.GET("/health", handlers.System.Health)
		ops.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// ─── WebSocket gateway (rate limited per IP) ──────────────────────
	router.GET("/ws", limiter.Middleware(), handlers.WS.Stream)

	return router
}
