package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/handlers"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	EventHandler   *handlers.EventHandler
	SwapHandler    *handlers.SwapHandler
	ClientOrigins  string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.ClientOrigins != "" {
		origins = origins[:0]
		for _, origin := range strings.Split(cfg.ClientOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/auth/signup", cfg.AuthHandler.Signup)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// Events
	protected.GET("/events", cfg.EventHandler.List)
	protected.POST("/events", cfg.EventHandler.Create)
	protected.PUT("/events/:id", cfg.EventHandler.Update)
	protected.DELETE("/events/:id", cfg.EventHandler.Delete)
	// Swaps
	protected.GET("/swappable-slots", cfg.SwapHandler.ListSwappable)
	protected.POST("/swap-request", cfg.SwapHandler.Propose)
	protected.POST("/swap-response/:requestId", cfg.SwapHandler.Respond)
	protected.GET("/swap-requests", cfg.SwapHandler.ListRequests)
	protected.POST("/reconcile", cfg.SwapHandler.Reconcile)

	return router
}
