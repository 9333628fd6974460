// Package app wires the storefront server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/electroshop/internal/cart"
	"github.com/utafrali/electroshop/internal/config"
	"github.com/utafrali/electroshop/internal/event"
	handler "github.com/utafrali/electroshop/internal/handler/http"
	"github.com/utafrali/electroshop/internal/pricing"
	"github.com/utafrali/electroshop/internal/repository/postgres"
	redisrepo "github.com/utafrali/electroshop/internal/repository/redis"
	"github.com/utafrali/electroshop/internal/service"
	"github.com/utafrali/electroshop/migrations"
	"github.com/utafrali/electroshop/pkg/database"
	"github.com/utafrali/electroshop/pkg/health"
	pkgkafka "github.com/utafrali/electroshop/pkg/kafka"
	"github.com/utafrali/electroshop/pkg/middleware"
	"github.com/utafrali/electroshop/pkg/tracing"
)

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	sessions       *cart.Sessions
	shutdownTracer tracing.ShutdownFunc
	httpServer     *http.Server

	// background is cancelled on shutdown and stops the session sweeper and
	// the rate limiter janitor.
	background context.Context
	stop       context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.close()
		if a.shutdownTracer != nil {
			_ = a.shutdownTracer(context.Background())
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	shutdownTracer, err := tracing.Init(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// PostgreSQL: products collection.
	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.DBHost),
		slog.String("database", cfg.DBName),
	)
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, config.ServiceName); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}
	if cfg.DBRunMigrations {
		if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Redis: persistent cart mirror.
	a.rdb, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka: optional cart events.
	var publisher cart.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		}, logger)
		publisher = event.NewProducer(a.producer, cfg.CartEventsTopic, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	mirror := redisrepo.NewCartMirror(a.rdb)
	a.sessions = cart.NewSessions(cart.Deps{
		Mirror:     mirror,
		Normalizer: pricing.NewNormalizer(logger),
		Publisher:  publisher,
		Logger:     logger,
	}, cfg.SessionIdleTTL)
	catalog := service.NewCatalogService(postgres.NewProductRepository(a.pool), logger)

	// Health checks.
	healthHandler := health.NewHandler(3 * time.Second)
	healthHandler.RegisterCritical("postgres", a.pool.Ping)
	healthHandler.RegisterCritical("redis", mirror.Ping)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	a.background, a.stop = context.WithCancel(context.Background())

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: config.ServiceName,
		Catalog:     catalog,
		Sessions:    a.sessions,
		Health:      healthHandler,
		Logger:      logger,
		CORS:        cfg.CORS(),
		RateLimit:   middleware.RateLimit(a.background, cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.sessions.Run(a.background)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	a.close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// close releases the connections that were opened, in reverse order.
func (a *App) close() {
	if a.stop != nil {
		a.stop()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
