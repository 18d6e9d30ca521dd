package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bimxplan/bimxplan-backend/internal/db"
	"github.com/bimxplan/bimxplan-backend/internal/events"
	"github.com/bimxplan/bimxplan-backend/internal/handlers"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/middleware"
	"github.com/bimxplan/bimxplan-backend/internal/observability"
	"github.com/bimxplan/bimxplan-backend/internal/pdf"
	"github.com/bimxplan/bimxplan-backend/internal/repos"
	"github.com/bimxplan/bimxplan-backend/internal/server"
	"github.com/bimxplan/bimxplan-backend/internal/services"
	"github.com/bimxplan/bimxplan-backend/internal/utils"
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
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "bimxplan-backend",
		Environment: logMode,
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	projectVersionRepo := repos.NewProjectVersionRepo(thePG, log)

	// Event bus
	log.Info("Setting up event bus now...")
	bus := events.NewBus(log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, projectRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	collectorService := services.NewCollectorService(thePG, log, bus, authService, projectRepo, projectVersionRepo)
	wizardService := services.NewWizardService(log, bus, collectorService)
	renderer := pdf.NewRenderer(log)
	exportService := services.NewExportService(log, collectorService, wizardService, renderer)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(collectorService)
	wizardHandler := handlers.NewWizardHandler(wizardService)
	exportHandler := handlers.NewExportHandler(exportService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    "bimxplan-backend",
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		ProjectHandler: projectHandler,
		WizardHandler:  wizardHandler,
		ExportHandler:  exportHandler,
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
