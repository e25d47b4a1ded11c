package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"renditax/internal/config"
	"renditax/internal/database"
	"renditax/internal/enrich"
	"renditax/internal/handlers"
	"renditax/internal/logger"
	"renditax/internal/middleware"
	"renditax/internal/services"
	"renditax/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "renditax/internal/docs" // Import swagger docs
)

// @title           Renditax API
// @version         1.0
// @description     Renditax tracks the dividend yield of a personal ETF and stock portfolio, enriching registered instruments from external sources.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	instrumentService := services.NewInstrumentService(db)

	// Initialize enrichment sources
	scrapeFetcher := enrich.NewHTTPPageFetcher(
		&http.Client{Timeout: appConfig.ScrapeTimeout},
		appConfig.ScrapeSettleDelay,
	)
	justETF := enrich.NewJustETFAdapter(scrapeFetcher, appConfig.JustETFBaseURL, appConfig.ScrapeTimeout, log)
	yahoo := enrich.NewYahooAdapter(
		&http.Client{Timeout: appConfig.QuoteTimeout},
		appConfig.YahooBaseURL,
		appConfig.QuoteTimeout,
		log,
	)
	adapters := []enrich.Adapter{justETF, yahoo}

	runner := enrich.NewRunner(instrumentService, map[enrich.Source]time.Duration{
		enrich.SourceScrape: appConfig.ScrapeItemDelay,
		enrich.SourceQuotes: appConfig.QuoteItemDelay,
	}, log)
	queue := enrich.NewQueue(runner, len(adapters), log)
	defer queue.Close()

	fxService := services.NewFXService(yahoo, appConfig.FXCacheTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	instrumentHandler := handlers.NewInstrumentHandler(instrumentService)
	enrichmentHandler := handlers.NewEnrichmentHandler(runner, queue, adapters)
	fxHandler := handlers.NewFXHandler(fxService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Instrument routes
	instruments := protected.Group("/instruments")
	instruments.POST("", instrumentHandler.Create)
	instruments.GET("", instrumentHandler.List)
	instruments.GET("/stats", instrumentHandler.GetStats)
	instruments.GET("/:isin", instrumentHandler.Get)
	instruments.DELETE("/:isin", instrumentHandler.Delete)
	instruments.GET("/:isin/observations", instrumentHandler.ListObservations)

	// Enrichment routes
	enrichGroup := protected.Group("/enrich")
	enrichGroup.GET("/jobs/:id", enrichmentHandler.GetJob)
	enrichGroup.POST("/:source", enrichmentHandler.SubmitBatch)
	enrichGroup.POST("/:source/:isin", enrichmentHandler.EnrichOne)

	// Currency routes
	protected.GET("/currency/:pair", fxHandler.GetRate)

	log.Infof("Starting Renditax backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
