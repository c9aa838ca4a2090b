// Package main is the entry point for the ledger API server.
// It loads configuration, wires storage and services, serves HTTP and runs
// the notification dispatcher until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"walletledger/internal/config"
	"walletledger/internal/handlers"
	"walletledger/internal/middleware"
	"walletledger/internal/repositories"
	"walletledger/internal/repositories/cache"
	"walletledger/internal/routes"
	"walletledger/internal/services/idempotency"
	"walletledger/internal/services/notification"
	"walletledger/internal/services/wallet"
)

const (
	shutdownTimeout   = 10 * time.Second
	statsInterval     = time.Minute
	purgeInterval     = time.Hour
	memoryQueueLength = 1024
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	if err := repositories.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := repositories.DB
	redisClient := repositories.CacheService.Client()
	defer closeAll(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cache.Ping(ctx, redisClient); err != nil {
		log.Printf("⚠️ %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	users := repositories.NewUserRepository(db)
	queue, err := newQueue(cfg.Notify, redisClient)
	if err != nil {
		log.Fatalf("Failed to configure notifications: %v", err)
	}
	walletService := wallet.NewService(
		wallet.NewLedger(repositories.NewLedgerRepository(db, cfg.LockTimeout)),
		repositories.NewAccountRepository(db),
		repositories.CacheService,
		notification.NewService(queue),
		wallet.Config{},
		wallet.NewPrometheusMetrics(reg),
	)

	store, err := newIdempotencyStore(cfg.IdempotencyBackend, db, redisClient)
	if err != nil {
		log.Fatalf("Failed to configure idempotency: %v", err)
	}
	guard := idempotency.NewGuard(store,
		idempotency.WithTTL(cfg.IdempotencyTTL),
		idempotency.WithRegisterer(reg),
	)

	dispatcher := notification.NewDispatcher(
		queue,
		users,
		notification.NewWebhookSender(cfg.Notify.Timeout),
		notification.DispatcherConfig{
			Workers:     cfg.Notify.Workers,
			MaxAttempts: cfg.Notify.MaxAttempts,
			Backoff:     cfg.Notify.Backoff,
		},
	)

	app := fiber.New(fiber.Config{AppName: "walletledger"})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,HEAD,PUT,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	routes.SetupRoutes(app, routes.Deps{
		JWTSecret:  cfg.JWTSecret,
		Wallet:     walletService,
		Users:      users,
		Guard:      guard,
		Metrics:    middleware.NewHTTPMetrics(reg),
		Health:     handlers.NewHealthHandler(db, redisClient),
		WriteLimit: cfg.WriteRateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		every(gctx, statsInterval, func() { repositories.LogStats(db) })
		return nil
	})
	if purger, ok := store.(*repositories.IdempotencyRepository); ok {
		g.Go(func() error {
			every(gctx, purgeInterval, func() {
				n, err := purger.PurgeExpired(gctx, time.Now().UTC())
				if err != nil {
					log.Printf("Failed to purge idempotency keys: %v", err)
					return
				}
				log.Printf("Purged %d expired idempotency keys", n)
			})
			return nil
		})
	}
	g.Go(func() error {
		log.Printf("Listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server stopped: %v", err)
	}
}

func newQueue(cfg config.NotifyConfig, client redis.UniversalClient) (notification.Queue, error) {
	switch cfg.Queue {
	case "memory":
		return notification.NewMemoryQueue(memoryQueueLength), nil
	case "redis":
		return notification.NewRedisQueue(client, ""), nil
	default:
		return nil, errors.New("NOTIFY_QUEUE must be memory or redis, got " + cfg.Queue)
	}
}

func newIdempotencyStore(backend string, db *gorm.DB, client redis.UniversalClient) (idempotency.Store, error) {
	switch backend {
	case "redis":
		return idempotency.NewRedisStore(client), nil
	case "postgres", "sql":
		return repositories.NewIdempotencyRepository(db), nil
	case "memory":
		return idempotency.NewMemoryStore(), nil
	default:
		return nil, errors.New("IDEMPOTENCY_BACKEND must be redis, postgres or memory, got " + backend)
	}
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func closeAll(db *gorm.DB) {
	if sqlDB, err := db.DB(); err != nil {
		log.Printf("⚠️ Failed to get database instance: %v", err)
	} else if err := sqlDB.Close(); err != nil {
		log.Printf("⚠️ Failed to close database connection: %v", err)
	}

	if err := repositories.CacheService.Close(); err != nil {
		log.Printf("⚠️ Failed to close Redis connection: %v", err)
	}
}
