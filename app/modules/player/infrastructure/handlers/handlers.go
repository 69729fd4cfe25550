package playerhandlers

import (
	"context"
	"errors"
	"log/slog"

	playerservice "github.com/Black-And-White-Club/tarok-bot/app/modules/player/application"
	playerevents "github.com/Black-And-White-Club/tarok-bot/app/modules/player/domain/events"
	tarokengine "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// Handlers handles player events.
type Handlers interface {
	HandleRegisterPlayers(ctx context.Context, payload *playerevents.PlayerRegisterRequestedPayloadV1) ([]handlerwrapper.Result, error)
}

// PlayerHandlers implements the Handlers interface.
type PlayerHandlers struct {
	service playerservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewPlayerHandlers creates a new PlayerHandlers instance.
func NewPlayerHandlers(service playerservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &PlayerHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleRegisterPlayers registers the requested names. Tarok game tokens are
// always reserved since a chat may switch modes between sessions.
func (h *PlayerHandlers) HandleRegisterPlayers(ctx context.Context, payload *playerevents.PlayerRegisterRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload is nil")
	}
	ctx, span := h.tracer.Start(ctx, "PlayerHandlers.HandleRegisterPlayers")
	defer span.End()

	result, err := h.service.RegisterPlayers(ctx, payload.ChatID, payload.Names, tarokengine.ReservedNames())
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		f := *result.Failure
		return []handlerwrapper.Result{{
			Topic: playerevents.PlayerRegisterFailedV1,
			Payload: &playerevents.PlayerRegisterFailedPayloadV1{
				ChatID:  payload.ChatID,
				Code:    f.Code,
				Message: f.Message,
			},
		}}, nil
	}

	h.logger.InfoContext(ctx, "Players processed",
		attr.ChatID(payload.ChatID.String()),
		attr.Int("names", len(payload.Names)),
	)
	return []handlerwrapper.Result{{
		Topic: playerevents.PlayerRegisteredV1,
		Payload: &playerevents.PlayerRegisteredPayloadV1{
			ChatID:        payload.ChatID,
			Registrations: *result.Success,
		},
	}}, nil
}
