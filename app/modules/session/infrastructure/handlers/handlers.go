package sessionhandlers

import (
	"errors"
	"log/slog"

	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"go.opentelemetry.io/otel/trace"
)

var errNilPayload = errors.New("payload is nil")

// SessionHandlers implements the Handlers interface.
type SessionHandlers struct {
	service sessionservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSessionHandlers creates a new SessionHandlers instance.
func NewSessionHandlers(
	service sessionservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &SessionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func failed(topic string, chatID sharedtypes.ChatID, f *sessiontypes.Failure) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: topic,
		Payload: &sessionevents.SessionFailedPayloadV1{
			ChatID:  chatID,
			Code:    f.Code,
			Message: f.Message,
		},
	}}
}

func ended(chatID sharedtypes.ChatID, res *sessiontypes.EndResult) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: sessionevents.SessionEndedV1,
		Payload: &sessionevents.SessionEndedPayloadV1{
			ChatID:    chatID,
			SessionID: res.Session.ID,
			Reason:    res.Session.State,
			Report:    res.Report,
			FileName:  res.FileName,
			HTML:      res.HTML,
		},
	}}
}
