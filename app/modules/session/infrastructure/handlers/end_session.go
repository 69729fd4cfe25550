package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
)

// HandleEndSession ends a session and publishes its final report.
func (h *SessionHandlers) HandleEndSession(ctx context.Context, payload *sessionevents.SessionEndRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errNilPayload
	}
	ctx, span := h.tracer.Start(ctx, "SessionHandlers.HandleEndSession")
	defer span.End()

	result, err := h.service.EndSession(ctx, payload.ChatID)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return failed(sessionevents.SessionEndFailedV1, payload.ChatID, *result.Failure), nil
	}
	return ended(payload.ChatID, *result.Success), nil
}

// HandleIdleExpiry ends a session nobody scored in for a while. Checks that
// lost the race against a newer round or an explicit end publish nothing.
func (h *SessionHandlers) HandleIdleExpiry(ctx context.Context, payload *sessionevents.IdleExpiryRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errNilPayload
	}
	ctx, span := h.tracer.Start(ctx, "SessionHandlers.HandleIdleExpiry")
	defer span.End()

	result, err := h.service.ExpireIdle(ctx, payload.ChatID, payload.SessionID, payload.LastRound)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		f := *result.Failure
		if f.Code == sessiontypes.CodeSessionChanged || f.Code == sessiontypes.CodeNoSession {
			h.logger.DebugContext(ctx, "Idle expiry skipped",
				attr.ChatID(payload.ChatID.String()),
				attr.SessionID(payload.SessionID.String()),
				attr.String("code", string(f.Code)),
			)
			return nil, nil
		}
		return failed(sessionevents.SessionEndFailedV1, payload.ChatID, f), nil
	}
	return ended(payload.ChatID, *result.Success), nil
}
