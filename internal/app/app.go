package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/data/db"
	httpserver "github.com/Britinogn/CourviaShipAPI/internal/http"
	"github.com/Britinogn/CourviaShipAPI/internal/jobs/reconcile"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/rediscache"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *httpserver.Server
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

// Bootstrap loads the environment, then builds the logger and the config.
func Bootstrap() (*logger.Logger, Config, error) {
	src, envErr := LoadEnv()
	log, err := NewLogger()
	if err != nil {
		return nil, Config{}, fmt.Errorf("init logger: %w", err)
	}
	if envErr != nil {
		log.Sync()
		return nil, Config{}, envErr
	}
	log.Info("Loading environment variables...", "dotenv", src.DotEnv, "config_file", src.ConfigFile, "overlaid", src.Overlaid)

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, Config{}, fmt.Errorf("load config: %w", err)
	}
	return log, cfg, nil
}

func openPostgres(log *logger.Logger, cfg Config, migrate bool) (*db.PostgresService, error) {
	pg, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if migrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	return pg, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log, cfg.Metrics)

	pg, err := openPostgres(log, cfg, cfg.AutoMigrate)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}
	theDB := pg.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset, clients)
	middleware := wireMiddleware(log, serviceset)
	server := httpserver.NewServer(log, wireRouter(log, cfg, metrics, handlerset, middleware))

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		Metrics:      metrics,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Run starts the background workers and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Cache != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Cache)
		}
	}

	if w := a.Services.NotifyWorker; w != nil {
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start notification worker: %w", err)
		}
	}

	scheduler := reconcile.NewScheduler(a.Log, a.Services.Reconciler, a.Services.Auth, a.Cfg.Reconcile)
	if _, err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	return a.Server.Run(ctx, a.Cfg.Addr(), a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("Postgres close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			a.Log.Warn("OpenTelemetry shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate creates or updates the schema and exits.
func Migrate(log *logger.Logger, cfg Config) error {
	pg, err := openPostgres(log, cfg, true)
	if err != nil {
		return err
	}
	log.Info("Migrations applied")
	return pg.Close()
}

// Reconcile runs one repair pass over the tracking store.
func Reconcile(ctx context.Context, log *logger.Logger, cfg Config, opts services.ReconcileOptions) (*services.ReconcileReport, error) {
	pg, err := openPostgres(log, cfg, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pg.Close() }()

	clients := Clients{}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		cache, err := rediscache.New(log, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable; repaired entries stay cached until TTL", "error", err)
		} else {
			clients.Cache = cache
			defer clients.Close()
		}
	}

	reposet := wireRepos(pg.DB(), log)
	r := services.NewReconciler(log, reposet.Shipment, reposet.Tracking, trackingCache(clients))
	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.Reconcile.BatchSize
	}
	return r.Reconcile(ctx, opts)
}
