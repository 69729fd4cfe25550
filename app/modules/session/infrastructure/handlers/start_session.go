package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
)

// HandleStartSession starts a session or reports the one already running.
func (h *SessionHandlers) HandleStartSession(ctx context.Context, payload *sessionevents.SessionStartRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errNilPayload
	}
	ctx, span := h.tracer.Start(ctx, "SessionHandlers.HandleStartSession")
	defer span.End()

	result, err := h.service.StartSession(ctx, payload.ChatID, payload.Mode)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return failed(sessionevents.SessionStartFailedV1, payload.ChatID, *result.Failure), nil
	}

	info := *result.Success
	h.logger.InfoContext(ctx, "Session ready",
		attr.ChatID(payload.ChatID.String()),
		attr.SessionID(info.ID.String()),
		attr.Bool("already_running", info.AlreadyRunning),
	)
	return []handlerwrapper.Result{{
		Topic: sessionevents.SessionStartedV1,
		Payload: &sessionevents.SessionStartedPayloadV1{
			ChatID:         payload.ChatID,
			SessionID:      info.ID,
			Mode:           info.Mode,
			StartedAt:      info.StartedAt,
			Rounds:         info.Rounds,
			AlreadyRunning: info.AlreadyRunning,
		},
	}}, nil
}
