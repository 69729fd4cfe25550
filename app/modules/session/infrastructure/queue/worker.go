package sessionqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/riverqueue/river"
)

// IdleExpiryWorker turns due IdleExpiryJobs into idle-expiry events.
type IdleExpiryWorker struct {
	river.WorkerDefaults[IdleExpiryJob]
	logger    *slog.Logger
	publisher message.Publisher
}

// NewIdleExpiryWorker creates a worker publishing through publisher.
func NewIdleExpiryWorker(logger *slog.Logger, publisher message.Publisher) *IdleExpiryWorker {
	return &IdleExpiryWorker{logger: logger, publisher: publisher}
}

// Work publishes session.idle_expiry.requested.v1 for the job's session.
func (w *IdleExpiryWorker) Work(ctx context.Context, job *river.Job[IdleExpiryJob]) error {
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.ChatID(job.Args.ChatID.String()),
		attr.SessionID(job.Args.SessionID.String()),
		attr.Int("last_round", job.Args.LastRound),
	)

	body, err := json.Marshal(sessionevents.IdleExpiryRequestedPayloadV1{
		ChatID:    job.Args.ChatID,
		SessionID: job.Args.SessionID,
		LastRound: job.Args.LastRound,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal idle expiry payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(handlerwrapper.TopicMetadataKey, sessionevents.IdleExpiryRequestedV1)
	msg.Metadata.Set("chat_id", job.Args.ChatID.String())
	middleware.SetCorrelationID(watermill.NewUUID(), msg)

	if err := w.publisher.Publish(sessionevents.IdleExpiryRequestedV1, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish idle expiry event", attr.Error(err))
		return fmt.Errorf("failed to publish idle expiry event: %w", err)
	}

	logger.InfoContext(ctx, "Idle expiry event published")
	return nil
}
