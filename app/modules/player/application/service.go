package playerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	playertypes "github.com/Black-And-White-Club/tarok-bot/app/modules/player/domain/types"
	playerdb "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PlayerService implements the Service interface.
type PlayerService struct {
	repo    playerdb.Repository
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
}

var _ Service = (*PlayerService)(nil)

// NewPlayerService creates a new PlayerService.
func NewPlayerService(
	repo playerdb.Repository,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *PlayerService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &PlayerService{repo: repo, logger: logger, metrics: m, tracer: tracer}
}

func (s *PlayerService) RegisterPlayers(ctx context.Context, chatID sharedtypes.ChatID, names []string, reserved []string) (RegisterResult, error) {
	return withTelemetry(s, ctx, "RegisterPlayers", chatID, func(ctx context.Context) (RegisterResult, error) {
		if len(names) == 0 {
			return results.FailureResult[[]playertypes.Registration](&playertypes.Failure{
				Code:    playertypes.CodeNoNames,
				Message: "no names to register",
			}), nil
		}

		blocked := make(map[string]bool, len(reserved))
		for _, r := range reserved {
			blocked[NormalizeName(r)] = true
		}

		seen := make(map[string]bool, len(names))
		out := make([]playertypes.Registration, 0, len(names))
		for _, raw := range names {
			name := NormalizeName(raw)
			reg := playertypes.Registration{Name: name}
			switch {
			case validName(name) != "":
				reg.Status, reg.Reason = playertypes.StatusInvalid, validName(name)
			case blocked[name]:
				reg.Status, reg.Reason = playertypes.StatusReserved, "name is a game token"
			case seen[name]:
				reg.Status, reg.Reason = playertypes.StatusDuplicate, "name listed twice"
			default:
				seen[name] = true
				player, status, err := s.register(ctx, chatID, name)
				if err != nil {
					return RegisterResult{}, err
				}
				reg.Status, reg.Player = status, &player
			}
			out = append(out, reg)
		}
		return results.SuccessResult[[]playertypes.Registration, *playertypes.Failure](out), nil
	})
}

func (s *PlayerService) register(ctx context.Context, chatID sharedtypes.ChatID, name string) (sharedtypes.Player, playertypes.Status, error) {
	row := &playerdb.Player{ChatID: chatID, Name: name}
	err := s.repo.CreatePlayer(ctx, nil, row)
	if err == nil {
		s.logger.InfoContext(ctx, "Player registered",
			attr.ChatID(chatID.String()),
			attr.String("player_name", name),
		)
		return row.Shared(), playertypes.StatusRegistered, nil
	}
	if !errors.Is(err, playerdb.ErrPlayerExists) {
		return sharedtypes.Player{}, "", err
	}
	existing, err := s.repo.GetByName(ctx, nil, chatID, name)
	if err != nil {
		return sharedtypes.Player{}, "", fmt.Errorf("failed to load existing player: %w", err)
	}
	return existing.Shared(), playertypes.StatusAlreadyRegistered, nil
}

func (s *PlayerService) ListPlayers(ctx context.Context, chatID sharedtypes.ChatID) (ListResult, error) {
	return withTelemetry(s, ctx, "ListPlayers", chatID, func(ctx context.Context) (ListResult, error) {
		rows, err := s.repo.ListPlayers(ctx, nil, chatID)
		if err != nil {
			return ListResult{}, err
		}
		players := make([]sharedtypes.Player, len(rows))
		for i := range rows {
			players[i] = rows[i].Shared()
		}
		return results.SuccessResult[[]sharedtypes.Player, *playertypes.Failure](players), nil
	})
}

// Resolve looks name up in chatID. A miss wraps sharedtypes.ErrPlayerNotFound.
func (s *PlayerService) Resolve(ctx context.Context, chatID sharedtypes.ChatID, name string) (sharedtypes.Player, error) {
	row, err := s.repo.GetByName(ctx, nil, chatID, NormalizeName(name))
	if err != nil {
		return sharedtypes.Player{}, err
	}
	return row.Shared(), nil
}

// Directory binds Resolve to one chat.
func (s *PlayerService) Directory(chatID sharedtypes.ChatID) sharedtypes.Directory {
	return chatDirectory{service: s, chatID: chatID}
}

type chatDirectory struct {
	service *PlayerService
	chatID  sharedtypes.ChatID
}

func (d chatDirectory) Resolve(ctx context.Context, name string) (sharedtypes.Player, error) {
	return d.service.Resolve(ctx, d.chatID, name)
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a player operation with a span, metrics and panic recovery.
func withTelemetry[S any, F any](
	s *PlayerService,
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

	s.metrics.RecordOperationAttempt(ctx, operationName, "PlayerService")
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "PlayerService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.ChatID(chatID.String()),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "PlayerService")
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
		s.metrics.RecordOperationFailure(ctx, operationName, "PlayerService")
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

	s.metrics.RecordOperationSuccess(ctx, operationName, "PlayerService")
	return result, nil
}
