package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/tarok-bot/app/eventbus"
	playerservice "github.com/Black-And-White-Club/tarok-bot/app/modules/player/application"
	playerhandlers "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/handlers"
	playerdb "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/repositories"
	playerrouter "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/router"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the player module.
type Module struct {
	PlayerService *playerservice.PlayerService
	PlayerRouter  *playerrouter.PlayerRouter
	logger        *slog.Logger
	cancelFunc    context.CancelFunc
}

// NewPlayerModule wires the player repository, service and router.
func NewPlayerModule(
	ctx context.Context,
	obs *observability.Observability,
	m metrics.OperationMetrics,
	db *bun.DB,
	eventBus eventbus.EventBus,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "player"))
	logger.InfoContext(ctx, "player.NewPlayerModule called")

	service := playerservice.NewPlayerService(playerdb.NewRepository(db), logger, m, obs.Tracer)

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create player router: %w", err)
	}
	playerRouter := playerrouter.NewPlayerRouter(logger, router, eventBus, eventBus, obs.Tracer, obs.Registry)
	if err := playerRouter.Configure(ctx, playerhandlers.NewPlayerHandlers(service, logger, obs.Tracer)); err != nil {
		return nil, fmt.Errorf("failed to configure player router: %w", err)
	}

	return &Module{
		PlayerService: service,
		PlayerRouter:  playerRouter,
		logger:        logger,
	}, nil
}

// Run runs the player router until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	m.logger.InfoContext(ctx, "Starting player module")
	if err := m.PlayerRouter.Router.Run(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Player router stopped with error", attr.Error(err))
	}
	m.logger.InfoContext(ctx, "Player module goroutine stopped")
}

// Close stops the player module.
func (m *Module) Close() error {
	m.logger.Info("Stopping player module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.PlayerRouter != nil {
		if err := m.PlayerRouter.Close(); err != nil {
			return fmt.Errorf("error closing PlayerRouter: %w", err)
		}
	}
	m.logger.Info("Player module stopped")
	return nil
}
