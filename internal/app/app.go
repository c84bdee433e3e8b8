package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shaibs3/groupdir/internal/config"
	"github.com/shaibs3/groupdir/internal/handlers"
	"github.com/shaibs3/groupdir/internal/metadata"
	"github.com/shaibs3/groupdir/internal/router"
	"github.com/shaibs3/groupdir/internal/store"
	"github.com/shaibs3/groupdir/internal/telemetry"
	"github.com/shaibs3/groupdir/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App represents the main application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	store     store.DbProvider
	cache     metadata.Cache
	server    *http.Server
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}

	// Use the factory to create the DB provider; empty config means in-memory
	factory := store.NewDbProviderFactory(logger, tel)
	dbProvider, err := factory.CreateProvider(cfg.GroupDBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	if cfg.SeedSampleData {
		n, err := store.Seed(context.Background(), dbProvider)
		if err != nil {
			_ = dbProvider.Close()
			return nil, err
		}
		logger.Info("sample data seeded", zap.Int("groups", n))
	}

	cache := newMetadataCache(cfg, logger)
	fetcher := metadata.NewHTTPFetcher(cfg.MetadataFetchTimeout, logger)
	resolver, err := metadata.NewResolver(fetcher, cache, logger, tel.Meter)
	if err != nil {
		_ = dbProvider.Close()
		return nil, fmt.Errorf("failed to initialize metadata resolver: %w", err)
	}

	validator, err := validation.New()
	if err != nil {
		_ = dbProvider.Close()
		return nil, fmt.Errorf("failed to initialize validator: %w", err)
	}

	// Initialize router with handlers
	limiter := rate.NewLimiter(rate.Limit(cfg.RPSLimit), cfg.RPSBurst)
	handlerList := []router.Handler{
		handlers.NewGroupHandler(dbProvider, validator),
		handlers.NewMetadataHandler(resolver),
		handlers.NewStatsHandler(dbProvider),
	}

	appRouter := router.NewRouter(limiter, tel, logger, handlerList)
	server := appRouter.CreateServer(":" + cfg.Port)

	return &App{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		store:     dbProvider,
		cache:     cache,
		server:    server,
	}, nil
}

func newMetadataCache(cfg *config.Config, logger *zap.Logger) metadata.Cache {
	switch cfg.MetadataCacheType {
	case config.CacheNone:
		return metadata.NopCache{}
	case config.CacheRedis:
		logger.Info("using redis metadata cache", zap.String("addr", cfg.RedisAddr))
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return metadata.NewRedisCache(client, cfg.MetadataCacheTTL)
	default:
		return metadata.NewMemoryCache(cfg.MetadataCacheTTL)
	}
}

// Handler exposes the HTTP handler chain
func (app *App) Handler() http.Handler {
	return app.server.Handler
}

// shutdownTimeout bounds draining in-flight requests on stop
const shutdownTimeout = 30 * time.Second

// start serves the directory API in the background
func (app *App) start() {
	app.logger.Info("listening", zap.String("addr", app.server.Addr))
	go func() {
		err := app.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("listener failed", zap.Error(err))
		}
	}()
}

// stop drains requests, then releases the store, cache and meter provider
func (app *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.logger.Info("draining requests", zap.Duration("timeout", shutdownTimeout))
	err := app.server.Shutdown(ctx)
	if err != nil {
		app.logger.Error("drain incomplete", zap.Error(err))
	}
	app.close(ctx)
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	app.logger.Info("stopped")
	return nil
}

// close releases the store, the cache and telemetry
func (app *App) close(ctx context.Context) {
	if err := app.store.Close(); err != nil {
		app.logger.Error("failed to close store", zap.Error(err))
	}
	if c, ok := app.cache.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			app.logger.Error("failed to close metadata cache", zap.Error(err))
		}
	}
	if err := app.telemetry.Shutdown(ctx); err != nil {
		app.logger.Error("failed to shut down telemetry", zap.Error(err))
	}
}

// Run serves until SIGINT or SIGTERM
func (app *App) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app.start()
	<-ctx.Done()
	return app.stop()
}
