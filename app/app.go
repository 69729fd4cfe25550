// Package app wires configuration, infrastructure and modules into one
// running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Black-And-White-Club/tarok-bot/app/database"
	"github.com/Black-And-White-Club/tarok-bot/app/eventbus"
	"github.com/Black-And-White-Club/tarok-bot/app/modules/player"
	"github.com/Black-And-White-Club/tarok-bot/app/modules/session"
	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	"github.com/Black-And-White-Club/tarok-bot/app/server"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	"github.com/Black-And-White-Club/tarok-bot/config"
	"github.com/uptrace/bun"
)

// Version is stamped at build time.
var Version = "dev"

// App holds the running components.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      *eventbus.Bus
	PlayerModule  *player.Module
	SessionModule *session.Module
	Server        *server.Server

	wg sync.WaitGroup
}

// New connects to Postgres and NATS and builds every module.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:    "tarok-bot",
		Environment:    cfg.Observability.Environment,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		SampleRate:     cfg.Observability.TempoSampleRate,
		ServiceVersion: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger
	m := metrics.NewPrometheus(obs.Registry)

	a := &App{Config: cfg, Observability: obs}

	a.DB, err = database.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	if cfg.NATS.URL == "" {
		logger.Warn("NATS URL not configured, using in-memory event bus")
		a.EventBus = eventbus.NewInMemory(logger)
	} else {
		a.EventBus, err = eventbus.NewEventBus(ctx, eventbus.Config{URL: cfg.NATS.URL, QueueGroup: cfg.NATS.QueueGroup}, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	a.PlayerModule, err = player.NewPlayerModule(ctx, obs, m, a.DB, a.EventBus)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	var queue sessionqueue.QueueService
	if cfg.Session.IdleTimeout > 0 {
		q, err := sessionqueue.NewService(ctx, cfg.Postgres.DSN, logger, m, a.EventBus)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		queue = q
	} else {
		logger.Info("Idle expiry disabled")
	}

	a.SessionModule, err = session.NewSessionModule(ctx, session.Deps{
		Observability: obs,
		Metrics:       m,
		DB:            a.DB,
		EventBus:      a.EventBus,
		Players:       a.PlayerModule.PlayerService,
		Queue:         queue,
		Config: sessionservice.Config{
			IdleTimeout:      cfg.Session.IdleTimeout,
			StrictDuplicates: cfg.Tarok.StrictDuplicates,
		},
	})
	if err != nil {
		if queue != nil {
			_ = queue.Stop(ctx)
		}
		a.Close(ctx)
		return nil, err
	}

	a.Server = server.New(server.Config{
		Addr:           cfg.HTTP.Addr,
		RateLimit:      cfg.HTTP.RateLimit,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	}, a.SessionModule.SessionService, obs.Registry, logger)

	return a, nil
}

// Run starts the modules and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	a.wg.Add(2)
	go a.PlayerModule.Run(ctx, &a.wg)
	go a.SessionModule.Run(ctx, &a.wg)

	serverErr := make(chan error, 1)
	go func() { serverErr <- a.Server.ListenAndServe() }()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	case err = <-serverErr:
		logger.Error("HTTP server stopped", attr.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return errors.Join(err, a.Close(shutdownCtx))
}

// Close stops everything New started. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		errs = append(errs, a.Server.Shutdown(ctx))
	}
	if a.SessionModule != nil {
		errs = append(errs, a.SessionModule.Close())
	}
	if a.PlayerModule != nil {
		errs = append(errs, a.PlayerModule.Close())
	}
	a.wg.Wait()
	if a.EventBus != nil {
		errs = append(errs, a.EventBus.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Observability != nil {
		errs = append(errs, a.Observability.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
