package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fakturan-dev/catalog-service/internal/events"
	"github.com/fakturan-dev/catalog-service/internal/handler"
	"github.com/fakturan-dev/catalog-service/internal/repository"
	"github.com/fakturan-dev/catalog-service/internal/service"
	"github.com/fakturan-dev/catalog-service/pkg/config"
	"github.com/fakturan-dev/catalog-service/pkg/middleware"
	pkgtls "github.com/fakturan-dev/catalog-service/pkg/tls"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal("Failed to create store:", err)
	}
	defer store.Close()

	// Storage is initialized before any request is served; there is no
	// lazy setup path.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()
	if err := store.EnsureSchema(initCtx); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}
	if err := store.Ping(initCtx); err != nil {
		log.Fatal("Failed to reach storage:", err)
	}
	logger.Info("Storage ready", zap.String("backend", cfg.StorageBackend))

	var producer *events.Producer
	if cfg.KafkaBrokers != "" {
		producer = events.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
		defer producer.Close()
		logger.Info("Catalog events enabled", zap.String("topic", cfg.KafkaTopic))
	}

	productService := service.NewProductService(store, producer, logger)
	productHandler := handler.NewProductHandler(productService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Versioned base path, with unversioned aliases kept for existing
	// clients.
	productHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router.Group("/api/v1"))

	tlsConfig, tlsCloser, err := pkgtls.LoadServerConfig(context.Background(), &cfg.TLS, logger)
	if err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	if tlsCloser != nil {
		defer tlsCloser.Close()
	}

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsConfig,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		var err error
		if tlsConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return repository.NewPostgresStore(cfg.DatabaseURL)
	case "dynamodb":
		client, err := repository.NewDynamoClient(context.Background(), cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		return repository.NewDynamoStore(client, cfg.ProductTable), nil
	case "memory":
		return repository.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
