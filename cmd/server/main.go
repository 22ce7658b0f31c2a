package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/agrimart/agrimart/internal/adapter/events"
	"github.com/agrimart/agrimart/internal/adapter/handler"
	"github.com/agrimart/agrimart/internal/adapter/inference"
	"github.com/agrimart/agrimart/internal/adapter/storage"
	"github.com/agrimart/agrimart/internal/config"
	"github.com/agrimart/agrimart/internal/core/service"
	"github.com/agrimart/agrimart/internal/port"
	"github.com/agrimart/agrimart/pkg/logging"
	"github.com/agrimart/agrimart/pkg/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogJSON)

	if cfg.JWTSecret == "" {
		log.Error("AGRIMART_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error("failed to open mysql", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "error", err)
		os.Exit(1)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	// Redis is optional; without it idempotency checks and the product
	// cache are skipped.
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, continuing without cache", "error", err)
			rdb = nil
		} else {
			cache = storage.NewRedisAdapter(rdb)
			log.Info("connected to redis")
		}
	}

	// Adapters
	catalogRepo := storage.NewMySQLCatalog(db)
	orderRepo := storage.NewMySQLOrders(db)
	userRepo := storage.NewMySQLUsers(db)
	classifier := inference.NewClient(cfg.InferenceURL)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if publisher.Enabled() {
		log.Info("kafka events enabled", "topic", cfg.KafkaTopic)
	}

	// Services
	m := metrics.New("api")
	authz := service.RoleAuthorizer{}
	orderService := service.NewOrderService(catalogRepo, orderRepo, cache, publisher, authz, m, log)
	catalogService := service.NewCatalogService(catalogRepo, cache, authz, log)
	authService := service.NewAuthService(userRepo, authz, cfg.JWTSecret)
	detectService := service.NewDetectionService(classifier, log)

	h := handler.New(log, m, orderService, catalogService, authService, detectService)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: h.Routes(),
	}

	go func() {
		log.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	_ = publisher.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	log.Info("stopped")
}
