package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/moderation-service/internal/config"
	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/handlers"
	"github.com/SAP-F-2025/moderation-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/moderation-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/moderation-service/internal/services"
	"github.com/SAP-F-2025/moderation-service/internal/utils"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
	"github.com/SAP-F-2025/moderation-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		Logger:      slogLogger,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize event bus: in-process delivery for the propagation
	// handlers, plus kafka forwarding when brokers are configured.
	watermillLogger := watermill.NewSlogLogger(slogLogger)
	bus := events.NewGoChannelBus(watermillLogger)

	var forward message.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		forward, err = events.NewKafkaPublisher(cfg.KafkaBrokers, watermillLogger)
		if err != nil {
			log.Fatalf("Failed to initialize kafka publisher: %v", err)
		}
	}
	publisher := events.NewPublisher(bus, forward, slogLogger)

	// Initialize services
	serviceManager := services.NewServiceManager(repoManager.GetRepository(), publisher, slogLogger, validator.New())
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Register propagation handlers and start the event router
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		log.Fatalf("Failed to create event router: %v", err)
	}
	serviceManager.Propagation().RegisterHandlers(router, bus)

	routerCtx, routerCancel := context.WithCancel(context.Background())
	defer routerCancel()
	go func() {
		if err := router.Run(routerCtx); err != nil {
			log.Printf("Event router stopped: %v", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg.Casdoor)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	handlers.SetupMiddleware(ginRouter, logger)
	handlerManager.SetupRoutes(ginRouter)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: ginRouter,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop the event router before closing the bus it reads from
	routerCancel()
	if err := router.Close(); err != nil {
		log.Printf("Failed to close event router: %v", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
