package sessionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueName is the dedicated River queue for session jobs.
const QueueName = "session"

// QueueService schedules and cancels session jobs.
type QueueService interface {
	// ScheduleIdleExpiry schedules an idle-expiry check for sessionID at runAt.
	// Checks scheduled for earlier rounds of the session are cancelled.
	ScheduleIdleExpiry(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, lastRound int, runAt time.Time) error
	// CancelIdleExpiry cancels every pending idle-expiry check of sessionID.
	CancelIdleExpiry(ctx context.Context, sessionID uuid.UUID) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service schedules session jobs using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

// NewService creates a River-backed queue service. Due jobs are published
// through publisher.
func NewService(ctx context.Context, dsn string, logger *slog.Logger, m metrics.OperationMetrics, publisher message.Publisher) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
		attr.String("queue", QueueName),
	)

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", "river")
	ctxLogger.Info("Initializing session queue service")

	pool, err := newPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to connect pgx pool for River", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewIdleExpiryWorker(ctxLogger, publisher))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: 25},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "initialize_service", "river")
	m.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Session queue service initialized")

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: m}, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate brings the River tables up to date.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	logger.Info("River migrations applied", attr.Int("versions", len(res.Versions)))
	return nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.Info("Session queue service started")
	return nil
}

// Stop stops the River client and closes its pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.Info("Session queue service stopped")
	return nil
}

// ScheduleIdleExpiry schedules an idle-expiry check for sessionID at runAt.
func (s *Service) ScheduleIdleExpiry(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, lastRound int, runAt time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_idle_expiry", "river")

	ctxLogger := s.logger.With(
		attr.ChatID(chatID.String()),
		attr.SessionID(sessionID.String()),
		attr.Int("last_round", lastRound),
		attr.Time("run_at", runAt),
	)

	if err := s.CancelIdleExpiry(ctx, sessionID); err != nil {
		ctxLogger.Warn("Failed to cancel earlier idle expiry jobs", attr.Error(err))
	}

	res, err := s.client.Insert(ctx, IdleExpiryJob{
		ChatID:    chatID,
		SessionID: sessionID,
		LastRound: lastRound,
	}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: runAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule idle expiry job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_idle_expiry", "river")
		return fmt.Errorf("failed to schedule idle expiry job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_idle_expiry", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_idle_expiry", "river", time.Since(start))
	ctxLogger.Info("Idle expiry job scheduled", attr.Int64("job_id", res.Job.ID))
	return nil
}

// CancelIdleExpiry cancels every pending idle-expiry check of sessionID.
func (s *Service) CancelIdleExpiry(ctx context.Context, sessionID uuid.UUID) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM river_job
		WHERE kind = $1
		  AND state IN ('available', 'scheduled', 'retryable')
		  AND args->>'session_id' = $2`,
		IdleExpiryKind, sessionID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query idle expiry jobs: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("failed to read idle expiry jobs: %w", err)
	}

	for _, id := range ids {
		if _, err := s.client.JobCancel(ctx, id); err != nil {
			s.logger.Warn("Failed to cancel job", attr.Int64("job_id", id), attr.Error(err))
		}
	}
	return nil
}
