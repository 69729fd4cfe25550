package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
)

// HandleSubmitRound scores one round line.
func (h *SessionHandlers) HandleSubmitRound(ctx context.Context, payload *sessionevents.RoundSubmittedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errNilPayload
	}
	ctx, span := h.tracer.Start(ctx, "SessionHandlers.HandleSubmitRound")
	defer span.End()

	result, err := h.service.SubmitRound(ctx, payload.ChatID, payload.Text)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		f := *result.Failure
		return []handlerwrapper.Result{{
			Topic: sessionevents.RoundRejectedV1,
			Payload: &sessionevents.RoundRejectedPayloadV1{
				ChatID:  payload.ChatID,
				Text:    payload.Text,
				Code:    f.Code,
				Message: f.Message,
				Token:   f.Token,
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic: sessionevents.RoundScoredV1,
		Payload: &sessionevents.RoundScoredPayloadV1{
			ChatID:  payload.ChatID,
			Outcome: **result.Success,
		},
	}}, nil
}
