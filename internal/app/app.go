package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/db"
	"github.com/yungbote/maia-backend/internal/http"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

const (
	serviceName     = "maia-backend"
	shutdownTimeout = 15 * time.Second
)

// Version is set at build time.
var Version = "dev"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services

	store        *db.Service
	otelShutdown func(context.Context) error
}

func New(cfg Config) (*App, error) {
	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracing := cfg.Tracing
	tracing.ServiceName = serviceName
	tracing.Environment = cfg.Mode
	tracing.Version = Version
	otelShutdown := observability.InitOTel(context.Background(), log, tracing)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := store.DB()

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	clientset, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, metrics)
	if err != nil {
		clientset.Close()
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	sqlDB, err := theDB.DB()
	if err != nil {
		clientset.Close()
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("unwrap sql db: %w", err)
	}

	handlerset := wireHandlers(log, serviceset, sqlDB)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, clientset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

// Migrate opens the configured database and creates or updates its schema.
func Migrate(cfg Config) error {
	log, err := logger.New(cfg.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	return store.Close()
}

func openStore(cfg Config, log *logger.Logger) (*db.Service, error) {
	store, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("db automigrate: %w", err)
	}
	return store, nil
}

// Run serves HTTP until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + a.Cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "addr", addr)
		errCh <- a.Server.Run(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
