package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/guildmint/gamecenter-bot/app/eventbus"
	gameservice "github.com/guildmint/gamecenter-bot/app/modules/game/application"
	gameevents "github.com/guildmint/gamecenter-bot/app/modules/game/domain/events"
	gamequeue "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/queue"
	settingsservice "github.com/guildmint/gamecenter-bot/app/modules/settings/application"
	walletservice "github.com/guildmint/gamecenter-bot/app/modules/wallet/application"
	"github.com/guildmint/gamecenter-bot/app/shared/observability"
	"github.com/guildmint/gamecenter-bot/config"
	"github.com/guildmint/gamecenter-bot/db/bundb"
)

// App owns every long-lived component: database, event bus, expiry queue,
// the service layer, and the ops HTTP server.
type App struct {
	Config          *config.Config
	GameService     gameservice.Service
	WalletService   *walletservice.Service
	SettingsService *settingsservice.Service
	QueueService    *gamequeue.Service
	EventBus        eventbus.EventBus

	db         *bundb.DBService
	logger     *slog.Logger
	registry   *prometheus.Registry
	httpServer *http.Server
}

// NewApp wires the full application graph from configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	if err := bus.CreateStream(ctx, gameevents.GameStreamName, gameevents.GameStreamName+".>"); err != nil {
		bus.Close()
		dbService.Close()
		return nil, fmt.Errorf("failed to create game stream: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewOperationMetrics("gamecenter", registry)
	tracer := otel.Tracer("gamecenter-bot")

	walletSvc := walletservice.NewService(dbService.WalletDB, dbService.LedgerDB, logger)
	settingsSvc := settingsservice.NewService(dbService.SettingsDB, dbService.CategoryDB, logger)

	gameSvc := gameservice.NewGameService(
		dbService.GameDB,
		dbService.ParticipantDB,
		dbService.ResultDB,
		walletSvc,
		settingsSvc,
		bus,
		nil, // expiry scheduler attached below
		logger,
		metrics,
		tracer,
		dbService.GetDB(),
	)

	queueSvc, err := gamequeue.NewService(ctx, dbService.GetDB(), logger, cfg.Postgres.DSN, metrics, gameSvc)
	if err != nil {
		bus.Close()
		dbService.Close()
		return nil, fmt.Errorf("failed to initialize queue service: %w", err)
	}
	gameSvc.SetExpiryScheduler(queueSvc, cfg.Game.ExpiryTTL)

	return &App{
		Config:          cfg,
		GameService:     gameSvc,
		WalletService:   walletSvc,
		SettingsService: settingsSvc,
		QueueService:    queueSvc,
		EventBus:        bus,
		db:              dbService,
		logger:          logger,
		registry:        registry,
	}, nil
}

// DB returns the database service.
func (a *App) DB() *bundb.DBService {
	return a.db
}

// Shutdown stops components in reverse dependency order.
func (a *App) Shutdown(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shut down ops server", slog.Any("error", err))
		}
	}
	if err := a.QueueService.Stop(ctx); err != nil {
		a.logger.Error("failed to stop queue service", slog.Any("error", err))
	}
	if err := a.EventBus.Close(); err != nil {
		a.logger.Error("failed to close event bus", slog.Any("error", err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("error", err))
	}
}
