package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartloom/marketplace/backend/internal/adapters/cache"
	"github.com/cartloom/marketplace/backend/internal/adapters/database"
	"github.com/cartloom/marketplace/backend/internal/adapters/search"
	"github.com/cartloom/marketplace/backend/internal/api/handlers"
	"github.com/cartloom/marketplace/backend/internal/api/middleware"
	"github.com/cartloom/marketplace/backend/internal/api/routes"
	"github.com/cartloom/marketplace/backend/internal/application/services"
	"github.com/cartloom/marketplace/backend/internal/domain/providers"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/redis"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/typesense"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
	"github.com/cartloom/marketplace/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize structured logging
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client; the product index is the backbone of
	// this service, so failing to reach it is fatal
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to initialize Typesense client: %v", err)
	}
	if err := typesenseClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: Failed to init Typesense schema: %v", err)
	}

	// Initialize adapters
	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	sessionAdapter := database.NewSessionAdapter(pgClient)
	interactionAdapter := database.NewInteractionAdapter(pgClient)
	analyticsAdapter := database.NewSearchAnalyticsAdapter(pgClient)
	productIndex := search.NewTypesenseAdapter(typesenseClient, logger)

	// Initialize services
	queryService := services.NewQueryUnderstandingService(cfg.NLP, logger)
	if cacheProvider != nil {
		queryService.SetCache(cacheProvider)
		log.Println("Query interpretation cache enabled")
	}

	sessionService := services.NewSessionService(sessionAdapter, interactionAdapter, logger)
	personalizationService := services.NewPersonalizationService(logger)
	analyticsService := services.NewSearchAnalyticsService(analyticsAdapter, logger)

	searchService := services.NewSearchService(
		queryService,
		sessionService,
		personalizationService,
		productIndex,
		analyticsService,
		logger,
	)

	// Keep interpretations of popular queries warm
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(analyticsAdapter, queryService, logger)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
		log.Println("Cache warming started (refreshes every 5 minutes)")
	}

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, queryService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		searchHandler,
		sessionHandler,
		analyticsHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
