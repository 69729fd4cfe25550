package playerrouter

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Black-And-White-Club/tarok-bot/app/eventbus"
	playerevents "github.com/Black-And-White-Club/tarok-bot/app/modules/player/domain/events"
	playerhandlers "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/handlers"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// PlayerRouter handles Watermill handler registration for player events.
type PlayerRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
}

func NewPlayerRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *PlayerRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && os.Getenv("APP_ENV") != "test" {
		b := metrics.NewPrometheusMetricsBuilder(registry, "tarokbot", "player")
		metricsBuilder = &b
	}
	return &PlayerRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

func (r *PlayerRouter) Configure(_ context.Context, handlers playerhandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          watermill.NewSlogLogger(r.logger),
		}.Middleware,
		middleware.Recoverer,
	)

	const name = "player." + playerevents.PlayerRegisterRequestedV1
	r.Router.AddHandler(
		name,
		playerevents.PlayerRegisterRequestedV1,
		r.subscriber,
		"",
		r.publisher,
		handlerwrapper.WrapTransformingTyped[playerevents.PlayerRegisterRequestedPayloadV1](name, r.logger, r.tracer, handlers.HandleRegisterPlayers),
	)
	return nil
}

// Close shuts down the router.
func (r *PlayerRouter) Close() error {
	return r.Router.Close()
}
