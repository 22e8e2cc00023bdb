// @title           Folio Feedback API
// @version         1.0
// @description     Portfolio feedback gateway: create, list, get and delete visitor messages.
// @BasePath        /
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/db"
	"github.com/folio-site/folio-backend/handlers"
	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/internal/store/memory"
	pgstore "github.com/folio-site/folio-backend/internal/store/postgres"
	supastore "github.com/folio-site/folio-backend/internal/store/supabase"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/middleware"
	"github.com/folio-site/folio-backend/router"
	"github.com/folio-site/folio-backend/services"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// shutdownBroker is implemented by both brokers.
type shutdownBroker interface {
	events.Broker
	Shutdown(ctx context.Context) error
}

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := buildRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize feedback store: %v", err)
	}
	defer closeRepo()
	instrumented := store.NewInstrumentedRepository(
		repo,
		time.Duration(cfg.Store.TimeoutSeconds)*time.Second,
		prometheus.DefaultRegisterer,
	)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = newRedisClient(&cfg.Redis)
		defer redisClient.Close()
	}
	broker := buildBroker(cfg, redisClient)

	pool := services.NewWorkerPool(cfg.WorkerPool, prometheus.DefaultRegisterer)
	pool.Start()
	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.Notification.Enabled {
		notifier = services.NewResendNotifier(cfg.Notification, prometheus.DefaultRegisterer)
	}
	notifications := services.NewNotificationQueue(pool, notifier)

	healthService := services.NewHealthService(instrumented, redisClient, cfg.Server.Version).
		WithStoreDriver(string(cfg.Store.Driver))

	r := router.SetupRouter(router.Dependencies{
		Config:          cfg,
		FeedbackHandler: handlers.NewFeedbackHandler(instrumented, broker, notifications),
		StreamHandler:   handlers.NewStreamHandler(broker, &cfg.Server, cfg.Stream),
		HealthHandler:   handlers.NewHealthHandler(healthService),
		HTTPMetrics:     middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Gatherer:        prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"store", cfg.Store.Driver,
			"redis", cfg.Redis.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	// Close the feed first. srv.Shutdown does not track hijacked stream connections.
	if err := broker.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Event broker shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}

	poolCtx, poolCancel := context.WithTimeout(context.Background(), time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds)*time.Second)
	defer poolCancel()
	if err := pool.Shutdown(poolCtx); err != nil {
		log.Warnw("Worker pool shutdown incomplete", "error", err)
	}

	log.Info("Server stopped")
}

// buildRepository selects the FeedbackRepository for the configured driver.
// The returned func releases any held connections.
func buildRepository(ctx context.Context, cfg *config.Config) (store.FeedbackRepository, func(), error) {
	log := logger.GetLogger()
	noop := func() {}

	switch cfg.Store.Driver {
	case config.DriverSupabase:
		client, err := supastore.NewClient(cfg.Supabase.URL, cfg.Supabase.Key)
		if err != nil {
			return nil, noop, err
		}
		return supastore.NewFeedbackStore(client, cfg.Store.Table), noop, nil

	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := db.RunMigrations(cfg.Database.URL()); err != nil {
				return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		pool, err := pgstore.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return pgstore.NewFeedbackStore(pool, cfg.Store.Table), pool.Close, nil

	case config.DriverMemory:
		log.Warn("Using in-memory feedback store; records are lost on restart")
		return memory.NewFeedbackStore(), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newRedisClient(cfg *config.RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func buildBroker(cfg *config.Config, redisClient *redis.Client) shutdownBroker {
	if redisClient == nil {
		return &memoryShutdown{events.NewMemoryBroker(cfg.Stream.EventBufferSize, prometheus.DefaultRegisterer)}
	}

	brokerCfg := events.DefaultConfig()
	if cfg.Redis.Channel != "" {
		brokerCfg.Channel = cfg.Redis.Channel
	}
	if cfg.Stream.EventBufferSize > 0 {
		brokerCfg.EventBufferSize = cfg.Stream.EventBufferSize
	}
	return events.NewRedisBroker(redisClient, brokerCfg, prometheus.DefaultRegisterer)
}

type memoryShutdown struct {
	*events.MemoryBroker
}

func (m *memoryShutdown) Shutdown(context.Context) error {
	m.Close()
	return nil
}
