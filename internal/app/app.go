package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/db"
	apphttp "github.com/mioplatform/mio-backend/internal/http"
	"github.com/mioplatform/mio-backend/internal/jobs"
	"github.com/mioplatform/mio-backend/internal/observability"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    Repos
	Services Services
	Handlers Handlers
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	advancer     *jobs.Advancer
	cancel       context.CancelFunc
	shutdownOTel func(context.Context) error
}

func New() (*App, error) {
	cfg := LoadConfig()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	log.Info("Starting app...", "env", cfg.Environment, "version", cfg.Version)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	gdb := pg.DB()

	metrics := observability.Init(log)

	r := wireRepos(gdb, log)

	svcs, err := wireServices(gdb, log, cfg, r, metrics)
	if err != nil {
		return nil, err
	}

	h := wireHandlers(gdb, log, svcs)

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthHandler:    h.Auth,
		AuthMiddleware: h.AuthMiddleware,

		AssignmentHandler: h.Assignment,
		TacticHandler:     h.Tactic,
		EventHandler:      h.Event,
		ProgramHandler:    h.Program,
		AdminHandler:      h.Admin,

		HealthHandler: h.Health,
	})

	return &App{
		Log:      log,
		Cfg:      cfg,
		DB:       gdb,
		Repos:    r,
		Services: svcs,
		Handlers: h,
		Server:   server,
		Metrics:  metrics,
		advancer: jobs.NewAdvancer(log, svcs.Advancement),
	}, nil
}

// Start launches the background workers. It does not block; Run does.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.shutdownOTel = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "mio-backend",
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})

	if observability.Enabled() {
		if a.Cfg.MetricsAddr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		}
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		a.Metrics.StartAssignmentCollector(ctx, a.Log, a.DB)
		if a.Cfg.RedisAddr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
		}
		a.Metrics.StartSLOEvaluator(ctx, a.Log)
	}

	if a.Services.Bus != nil {
		err := a.Services.Bus.StartForwarder(ctx, func(ev types.LifecycleEvent) {
			fields := []any{
				"event_type", string(ev.EventType),
				"user_id", ev.UserID.String(),
			}
			if ev.AssignmentID != nil {
				fields = append(fields, "assignment_id", ev.AssignmentID.String())
			}
			a.Log.Info("lifecycle event", fields...)
		})
		if err != nil {
			a.Log.Warn("failed to start event forwarder", "error", err)
		}
	}

	a.advancer.Start(ctx)
}

func (a *App) Run() error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.shutdownOTel != nil {
		_ = a.shutdownOTel(context.Background())
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	if a.Services.Lease != nil {
		_ = a.Services.Lease.Close()
	}
	a.Log.Sync()
}
