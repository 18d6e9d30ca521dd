package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/bimxplan/bimxplan-backend/internal/handlers"
	"github.com/bimxplan/bimxplan-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	ProjectHandler *handlers.ProjectHandler
	WizardHandler  *handlers.WizardHandler
	ExportHandler  *handlers.ExportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Projects
	api := protected.Group("/api")
	api.POST("/projects", cfg.ProjectHandler.Create)
	api.GET("/projects", cfg.ProjectHandler.List)
	api.GET("/projects/:id/export-data", cfg.ProjectHandler.ExportData)
	api.PUT("/projects/:id/plan", cfg.ProjectHandler.SavePlan)
	api.GET("/projects/:id/versions", cfg.ProjectHandler.ListVersions)
	// Wizard
	api.POST("/projects/:id/wizard", cfg.WizardHandler.Open)
	api.GET("/wizard/:sid", cfg.WizardHandler.Get)
	api.POST("/wizard/:sid/next", cfg.WizardHandler.Next)
	api.POST("/wizard/:sid/previous", cfg.WizardHandler.Previous)
	api.POST("/wizard/:sid/jump", cfg.WizardHandler.Jump)
	api.PUT("/wizard/:sid/step/:stepId", cfg.WizardHandler.UpdateStep)
	api.POST("/wizard/:sid/save", cfg.WizardHandler.ManualSave)
	// Exports
	api.POST("/projects/:id/export/pdf", cfg.ExportHandler.ExportPDF)
	api.GET("/projects/:id/export/markdown", cfg.ExportHandler.ExportMarkdown)

	return router
}
