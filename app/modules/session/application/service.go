// Package sessionservice runs the scoring sessions of every chat.
package sessionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config tunes a SessionService.
type Config struct {
	// IdleTimeout is how long a session may go without rounds before it is
	// expired. Zero disables expiry.
	IdleTimeout      time.Duration
	StrictDuplicates bool
}

// SessionService implements the Service interface.
type SessionService struct {
	repo     sessiondb.Repository
	queue    sessionqueue.QueueService
	players  DirectoryProvider
	registry *Registry
	logger   *slog.Logger
	metrics  metrics.SessionMetrics
	tracer   trace.Tracer
	db       *bun.DB
	cfg      Config
	now      func() time.Time
}

var _ Service = (*SessionService)(nil)

// NewSessionService creates a new SessionService. queue may be nil, in which
// case sessions never expire.
func NewSessionService(
	repo sessiondb.Repository,
	queue sessionqueue.QueueService,
	players DirectoryProvider,
	logger *slog.Logger,
	m metrics.SessionMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	cfg Config,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &SessionService{
		repo:     repo,
		queue:    queue,
		players:  players,
		registry: NewRegistry(),
		logger:   logger,
		metrics:  m,
		tracer:   tracer,
		db:       db,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Registry exposes the in-memory sessions.
func (s *SessionService) Registry() *Registry { return s.registry }

func (s *SessionService) newGame(chatID sharedtypes.ChatID, mode sessiontypes.Mode) (*Game, error) {
	return NewGame(mode, s.players.Directory(chatID), GameOptions{
		StrictDuplicates: s.cfg.StrictDuplicates,
		Logger:           s.logger.With(attr.ChatID(chatID.String())),
	})
}

func (s *SessionService) attach(ctx context.Context, e *entry, sess *activeSession) {
	s.metrics.RecordActiveSessions(ctx, s.registry.attach(e, sess))
}

func (s *SessionService) detach(ctx context.Context, e *entry) {
	s.metrics.RecordActiveSessions(ctx, s.registry.detach(e))
}

// loadSession returns the session held by e. A chat with an active session
// in the repository but none in memory is restored first.
func (s *SessionService) loadSession(ctx context.Context, e *entry, chatID sharedtypes.ChatID) (*activeSession, *sessiontypes.Failure, error) {
	if e.session != nil {
		return e.session, nil, nil
	}
	row, err := s.repo.GetActiveSession(ctx, nil, chatID)
	if err != nil {
		if errors.Is(err, sessiondb.ErrNotFound) {
			return nil, noSession(chatID), nil
		}
		return nil, nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return s.restoreSession(ctx, e, row)
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SessionService,
	ctx context.Context,
	operationName string,
	chatID sharedtypes.ChatID,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("chat_id", chatID.String()),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "SessionService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "SessionService", time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.ChatID(chatID.String()),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.ChatID(chatID.String()),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "SessionService")
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.ChatID(chatID.String()),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "SessionService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.ChatID(chatID.String()),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.ChatID(chatID.String()),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "SessionService")
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SessionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
