// @title           NeuroDesign Backend API
// @version         1.0.0
// @description     Backend API for the NeuroDesign image generation and refinement subsystem. Compiles structured configurations into prompts, dispatches to image-generation providers with mock fallback, and maintains a bounded per-project gallery.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a Supabase JWT.

package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neurodesign-backend/internal/config"
	"neurodesign-backend/internal/database"
	"neurodesign-backend/internal/handlers"
	"neurodesign-backend/internal/middleware"
	"neurodesign-backend/internal/provider"
	"neurodesign-backend/internal/services"
	"neurodesign-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required; set it to your Supabase PostgreSQL connection string")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database client", zap.Error(err))
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize migrator", zap.Error(err))
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		logger.Fatal("migration failed", zap.Error(err))
	}
	migrator.Close()

	// A crash between run insert and the terminal status update leaves the run
	// in running forever; sweep those on startup.
	if reaped, err := dbClient.ReapStaleRuns(services.StaleRunAge()); err != nil {
		logger.Warn("stale run sweep failed", zap.Error(err))
	} else if reaped > 0 {
		logger.Info("reaped stale runs", zap.Int64("count", reaped))
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatal("failed to initialize supabase client", zap.Error(err))
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", zap.Error(err))
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	registry := provider.NewRegistry(cfg.ProviderTimeout, logger)
	generationService := services.NewGenerationService(dbClient, registry, realtimeClient, cfg.PlaceholderImageURL, cfg.GalleryRetention, logger)
	refinementService := services.NewRefinementService(dbClient, registry, realtimeClient, cfg.PlaceholderImageURL, cfg.GalleryRetention, logger)

	neuroDesignHandler := handlers.NewNeuroDesignHandler(generationService, refinementService)
	projectsHandler := handlers.NewProjectsHandler(dbClient, storageClient)
	imagesHandler := handlers.NewImagesHandler(dbClient, storageClient)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/neurodesign/generate", neuroDesignHandler.Generate)
	api.POST("/neurodesign/refine", neuroDesignHandler.Refine)

	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.PATCH("/projects/:project_id", projectsHandler.RenameProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	api.GET("/projects/:project_id/images", imagesHandler.ListImages)
	api.DELETE("/projects/:project_id/images/:image_id", imagesHandler.DeleteImage)
	api.PATCH("/projects/:project_id/images/:image_id/favorite", imagesHandler.ToggleFavorite)
	api.POST("/projects/:project_id/images/:image_id/crop", imagesHandler.Crop)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
