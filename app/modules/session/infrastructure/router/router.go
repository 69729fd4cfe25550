package sessionrouter

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Black-And-White-Club/tarok-bot/app/eventbus"
	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	sessionhandlers "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// SessionRouter handles Watermill handler registration for session events.
type SessionRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewSessionRouter creates a new SessionRouter. Router metrics are skipped
// without a registry and when APP_ENV=test.
func NewSessionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *SessionRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && os.Getenv(TestEnvironmentFlag) != TestEnvironmentValue {
		b := metrics.NewPrometheusMetricsBuilder(registry, "tarokbot", "session")
		metricsBuilder = &b
	}

	return &SessionRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds the middleware stack and registers the handlers.
func (r *SessionRouter) Configure(_ context.Context, handlers sessionhandlers.Handlers) error {
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

	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

func (r *SessionRouter) registerHandlers(h sessionhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, sessionevents.SessionStartRequestedV1, h.HandleStartSession)
	registerHandler(deps, sessionevents.RoundSubmittedV1, h.HandleSubmitRound)
	registerHandler(deps, sessionevents.ReportRequestedV1, h.HandleGetReport)
	registerHandler(deps, sessionevents.SessionEndRequestedV1, h.HandleEndSession)
	registerHandler(deps, sessionevents.IdleExpiryRequestedV1, h.HandleIdleExpiry)

	r.logger.Info("Session module handlers registered")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "session." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"", // published to the subject in the topic metadata
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *SessionRouter) Close() error {
	return r.Router.Close()
}
