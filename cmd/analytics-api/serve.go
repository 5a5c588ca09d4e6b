package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/memoryos/analytics-api/internal/config"
	"github.com/memoryos/analytics-api/internal/handlers"
	"github.com/memoryos/analytics-api/internal/logger"
	"github.com/memoryos/analytics-api/internal/middleware"
	"github.com/memoryos/analytics-api/internal/repository"
	"github.com/memoryos/analytics-api/internal/service"
	"github.com/memoryos/analytics-api/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env if present; real deployments set environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetDefault(log)

	log.Info("starting analytics API server",
		logger.String("env", cfg.Server.Env),
		logger.String("supabase_url", cfg.Supabase.URL),
	)

	// Initialize Supabase client
	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	// Initialize repositories
	metricRepo := repository.NewMetricRepository(supabaseClient)
	memoryRepo := repository.NewMemoryUnitRepository(supabaseClient)

	// Initialize services
	consistencyService := service.NewConsistencyService(metricRepo)
	patternService := service.NewPatternService(memoryRepo)

	// Initialize handlers
	consistencyHandler := handlers.NewConsistencyHandler(consistencyService)
	patternsHandler := handlers.NewPatternsHandler(patternService)

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.SecurityHeaders(cfg.Server.Env))
	router.Use(middleware.RequestLogger())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "analytics-api",
			"version": version,
			"env":     cfg.Server.Env,
		})
	})

	// Service banner
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "analytics-api",
			"version": version,
			"endpoints": gin.H{
				"health":      "/health",
				"consistency": "/api/v1/consistency/{user_id}",
				"gaps":        "/api/v1/consistency/{user_id}/gaps",
				"patterns":    "/api/v1/patterns/{user_id}",
			},
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.RateLimit())
		protected.Use(middleware.Auth(supabaseClient, cfg.Server.Env))
		protected.Use(middleware.RequireSelf())
		{
			// Consistency routes
			protected.GET("/consistency/:user_id", consistencyHandler.GetEngagementScore)
			protected.GET("/consistency/:user_id/category/:category", consistencyHandler.GetCategoryConsistency)
			protected.GET("/consistency/:user_id/gaps", consistencyHandler.GetGaps)

			// Pattern routes
			protected.GET("/patterns/:user_id", patternsHandler.GetPatterns)
			protected.GET("/patterns/:user_id/frequency", patternsHandler.GetFrequencyPatterns)
			protected.GET("/patterns/:user_id/time", patternsHandler.GetTimePatterns)
		}
	}

	log.Info("server listening", logger.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
