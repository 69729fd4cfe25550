package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/tarok-bot/app/eventbus"
	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessionhandlers "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/handlers"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	sessionrouter "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/router"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Deps are the collaborators the session module is built from. Queue may be
// nil, which disables idle expiry.
type Deps struct {
	Observability *observability.Observability
	Metrics       metrics.SessionMetrics
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Players       sessionservice.DirectoryProvider
	Queue         sessionqueue.QueueService
	Config        sessionservice.Config
}

// Module represents the session module.
type Module struct {
	SessionService *sessionservice.SessionService
	SessionRouter  *sessionrouter.SessionRouter
	queue          sessionqueue.QueueService
	logger         *slog.Logger
	cancelFunc     context.CancelFunc
}

// NewSessionModule wires the session repository, service and router.
func NewSessionModule(ctx context.Context, deps Deps) (*Module, error) {
	obs := deps.Observability
	logger := obs.Logger.With(slog.String("module", "session"))
	logger.InfoContext(ctx, "session.NewSessionModule called")

	service := sessionservice.NewSessionService(
		sessiondb.NewRepository(deps.DB),
		deps.Queue,
		deps.Players,
		logger,
		deps.Metrics,
		obs.Tracer,
		deps.DB,
		deps.Config,
	)

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create session router: %w", err)
	}
	sessionRouter := sessionrouter.NewSessionRouter(logger, router, deps.EventBus, deps.EventBus, obs.Tracer, obs.Registry)
	if err := sessionRouter.Configure(ctx, sessionhandlers.NewSessionHandlers(service, logger, obs.Tracer)); err != nil {
		return nil, fmt.Errorf("failed to configure session router: %w", err)
	}

	return &Module{
		SessionService: service,
		SessionRouter:  sessionRouter,
		queue:          deps.Queue,
		logger:         logger,
	}, nil
}

// Run starts the idle-expiry queue and runs the session router until ctx
// is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	m.logger.InfoContext(ctx, "Starting session module")
	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Idle expiry queue failed to start", attr.Error(err))
		}
	}
	if err := m.SessionRouter.Router.Run(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Session router stopped with error", attr.Error(err))
	}
	m.logger.InfoContext(ctx, "Session module goroutine stopped")
}

// Close stops the router and the queue.
func (m *Module) Close() error {
	m.logger.Info("Stopping session module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	var firstErr error
	if m.SessionRouter != nil {
		if err := m.SessionRouter.Close(); err != nil {
			firstErr = fmt.Errorf("error closing SessionRouter: %w", err)
		}
	}
	if m.queue != nil {
		if err := m.queue.Stop(context.Background()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error stopping session queue: %w", err)
		}
	}
	m.logger.Info("Session module stopped")
	return firstErr
}
