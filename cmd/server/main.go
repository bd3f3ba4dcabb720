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

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// repository is what both store drivers provide.
type repository interface {
	service.ProductRepository
	service.OrderRepository
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront server",
		zap.String("env", cfg.Server.Env),
		zap.String("store", cfg.Store.Driver))

	tp, err := util.InitTracer("storefront-server", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	checks := map[string]api.Checker{}

	var repo repository
	switch cfg.Store.Driver {
	case "memory":
		repo = store.NewMemoryStore()
		logger.Warn("Using in-memory store; data is lost on restart")
	case "postgres":
		db, err := store.NewStore(cfg.Store.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database connected")
		repo = db
	default:
		logger.Fatal("Unknown STORE_DRIVER", zap.String("driver", cfg.Store.Driver))
	}
	checks["store"] = repo.Ping

	// The cache is optional: without Redis every query goes to the store.
	var cache service.CatalogCache
	var invalidator worker.CacheInvalidator
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
	if err != nil {
		logger.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cache, invalidator = redisClient, redisClient
		checks["redis"] = redisClient.Ping
		logger.Info("Redis connected")
	}

	var publisher service.EventPublisher
	var eventWorker *worker.EventWorker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		eventWorker = worker.NewEventWorker(consumer, invalidator)
		go func() {
			if err := eventWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Event worker error", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("No Kafka brokers configured, events disabled")
	}

	catalogService := service.NewCatalogService(repo, cache, publisher)
	orderService := service.NewOrderService(repo, publisher)

	if cfg.Catalog.SeedFile != "" {
		if _, err := catalogService.SeedFromFile(context.Background(), cfg.Catalog.SeedFile); err != nil {
			logger.Fatal("Failed to seed catalog", zap.String("file", cfg.Catalog.SeedFile), zap.Error(err))
		}
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Server.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty; admin routes will refuse every request")
	}

	router := gin.New()
	handler := api.NewHandler(catalogService, orderService, api.Options{
		AdminToken:      cfg.Server.AdminToken,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
		Checks:          checks,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if eventWorker != nil {
		if err := eventWorker.Stop(); err != nil {
			logger.Error("Error stopping event worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
