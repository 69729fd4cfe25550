package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for session event handlers.
type Handlers interface {
	HandleStartSession(ctx context.Context, payload *sessionevents.SessionStartRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleSubmitRound(ctx context.Context, payload *sessionevents.RoundSubmittedPayloadV1) ([]handlerwrapper.Result, error)
	HandleGetReport(ctx context.Context, payload *sessionevents.ReportRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleEndSession(ctx context.Context, payload *sessionevents.SessionEndRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleIdleExpiry handles checks fired by the idle-expiry job.
	HandleIdleExpiry(ctx context.Context, payload *sessionevents.IdleExpiryRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
