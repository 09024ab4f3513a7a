package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/db"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/handlers"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/middleware"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/server"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/services"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, relying on process environment")
	}
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "dev_secret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 604800, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	eventRepo := repos.NewEventRepo(thePG, log)
	swapRequestRepo := repos.NewSwapRequestRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	swapService := services.NewSwapService(thePG, log, eventRepo, swapRequestRepo)
	eventService := services.NewEventService(thePG, log, eventRepo, swapService)

	// Repair any swap state a previous crash left half-applied before
	// taking traffic.
	if report, rErr := swapService.Reconcile(context.Background()); rErr != nil {
		log.Warn("Startup reconcile sweep failed", "error", rErr)
	} else if report.RequestsRejected > 0 || report.EventsReleased > 0 {
		log.Info("Startup reconcile sweep repaired state", "requests_rejected", report.RequestsRejected, "events_released", report.EventsReleased)
	}

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(log, eventService)
	swapHandler := handlers.NewSwapHandler(log, swapService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		EventHandler:   eventHandler,
		SwapHandler:    swapHandler,
		ClientOrigins:  utils.GetEnv("CLIENT_ORIGIN", "", log),
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
