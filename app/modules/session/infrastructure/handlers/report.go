package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
)

// HandleGetReport publishes the interim report of a chat.
func (h *SessionHandlers) HandleGetReport(ctx context.Context, payload *sessionevents.ReportRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errNilPayload
	}
	ctx, span := h.tracer.Start(ctx, "SessionHandlers.HandleGetReport")
	defer span.End()

	result, err := h.service.GetReport(ctx, payload.ChatID)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return failed(sessionevents.ReportFailedV1, payload.ChatID, *result.Failure), nil
	}

	return []handlerwrapper.Result{{
		Topic: sessionevents.ReportReadyV1,
		Payload: &sessionevents.ReportReadyPayloadV1{
			ChatID: payload.ChatID,
			Report: **result.Success,
		},
	}}, nil
}
