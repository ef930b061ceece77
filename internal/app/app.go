package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venuegate/venuegate/internal/config"
	"github.com/venuegate/venuegate/internal/redisx"
	"github.com/venuegate/venuegate/internal/repository"
	redisrepo "github.com/venuegate/venuegate/internal/repository/redis"
	"github.com/venuegate/venuegate/internal/service"
	"github.com/venuegate/venuegate/internal/service/events"
	"github.com/venuegate/venuegate/internal/storage"
	"github.com/venuegate/venuegate/internal/storage/leveldb"
	"github.com/venuegate/venuegate/internal/storage/postgres"
	httpgin "github.com/venuegate/venuegate/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *repository.Store
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize the durable store
	kv, err := openKV(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	store, err := repository.NewStore(context.Background(), kv)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// Redis is a sidecar for caching, idempotency and rate limiting; the
	// service runs degraded without it.
	var (
		cache   *redisrepo.Cache
		pubsub  *redisx.EventsPubSub
		limiter *redisrepo.SlidingWindowLimiter
		idem    *redisrepo.IdempotencyStore
	)

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, running without cache/idempotency/rate limits", "error", err)
	} else {
		cache = redisrepo.New(rdb)
		pubsub = redisx.NewEventsPubSub(rdb)
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	}

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, service.Config{
		Events: events.Config{},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idem, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	err := g.Wait()

	if cerr := a.store.Close(); cerr != nil {
		a.logger.Error("failed to close store", "error", cerr)
		if err == nil {
			err = cerr
		}
	}

	return err
}

func openKV(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pool, err := postgres.NewPool(ctx, postgres.Config{DSN: dsn})
		if err != nil {
			return nil, err
		}

		return postgres.Open(ctx, pool)
	default:
		return leveldb.Open(cfg.Store.Path)
	}
}
