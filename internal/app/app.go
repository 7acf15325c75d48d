package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirinyoku/eventix/internal/clock"
	"github.com/kirinyoku/eventix/internal/config"
	"github.com/kirinyoku/eventix/internal/postgres"
	"github.com/kirinyoku/eventix/internal/redis"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/eventix/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/eventix/internal/repository/redis"
	"github.com/kirinyoku/eventix/internal/service"
	httpgin "github.com/kirinyoku/eventix/internal/transport/http/gin"
	"github.com/kirinyoku/eventix/migrations"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	closers    []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Left as nil interfaces when redis is off so the router and services
	// skip the features.
	var (
		notifier service.Notifier
		idem     httpgin.IdempotencyStore
		limiter  httpgin.RateLimiter
	)

	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: failed to initialize redis: %w", op, err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		notifier = redisrepo.NewChangesPubSub(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Server.IdempotencyTTL)
		if cfg.Server.RateLimitPerMinute > 0 {
			limiter = redisrepo.NewSlidingWindowLimiter(rdb, "write", cfg.Server.RateLimitPerMinute, time.Minute)
		}
	} else {
		logger.Info("redis disabled, notifications, idempotency and rate limiting are off")
	}

	services := service.NewServices(store, clock.NewSystem(), notifier, service.Config{
		TxMaxRetries: cfg.TxMaxRetries,
		Logger:       logger,
	})

	router := httpgin.NewRouter(services, httpgin.Options{
		Logger:      logger,
		Idempotency: idem,
		RateLimiter: limiter,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	if a.cfg.StorageDriver == config.StorageDriverMemory {
		a.logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:      a.cfg.Postgres.DSN(),
		MaxConns: a.cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := migrations.Apply(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return postgresrepo.NewStore(pool), nil
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// Close releases storage and redis connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
