package sessionservice

import (
	"context"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// Restore makes sure the active session of chatID is held in memory.
func (s *SessionService) Restore(ctx context.Context, chatID sharedtypes.ChatID) (StartResult, error) {
	return withTelemetry(s, ctx, "Restore", chatID, func(ctx context.Context) (StartResult, error) {
		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return StartResult{}, err
		}
		if fail != nil {
			return results.FailureResult[*sessiontypes.SessionInfo](fail), nil
		}
		info := sess.info(sessiontypes.StateActive)
		return results.SuccessResult[*sessiontypes.SessionInfo, *sessiontypes.Failure](&info), nil
	})
}

// restoreSession replays the round log of row into a fresh game and attaches
// it to the locked entry e. A log that no longer replays marks the session
// abandoned.
func (s *SessionService) restoreSession(ctx context.Context, e *entry, row *sessiondb.Session) (*activeSession, *sessiontypes.Failure, error) {
	game, err := s.newGame(row.ChatID, row.Mode)
	if err != nil {
		return nil, s.abandon(ctx, row, err), nil
	}

	rounds, err := s.repo.ListRounds(ctx, nil, row.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	for _, r := range rounds {
		p, err := game.Prepare(ctx, r.RawText)
		if err != nil {
			if sharedtypes.CodeOf(err) == "" {
				return nil, nil, fmt.Errorf("failed to replay round %d: %w", r.RoundIndex, err)
			}
			return nil, s.abandon(ctx, row, fmt.Errorf("round %d: %w", r.RoundIndex, err)), nil
		}
		if p.Index != r.RoundIndex {
			return nil, s.abandon(ctx, row, fmt.Errorf("round log has a gap at %d", p.Index)), nil
		}
		if _, err := game.Apply(ctx, p); err != nil {
			return nil, s.abandon(ctx, row, fmt.Errorf("round %d: %w", r.RoundIndex, err)), nil
		}
	}

	sess := &activeSession{id: row.ID, chatID: row.ChatID, mode: row.Mode, startedAt: row.StartedAt, game: game}
	s.attach(ctx, e, sess)

	s.logger.InfoContext(ctx, "Session restored",
		attr.ExtractCorrelationID(ctx),
		attr.ChatID(row.ChatID.String()),
		attr.SessionID(row.ID.String()),
		attr.Int("rounds", len(rounds)),
	)
	return sess, nil, nil
}

// abandon closes a session that cannot be restored.
func (s *SessionService) abandon(ctx context.Context, row *sessiondb.Session, cause error) *sessiontypes.Failure {
	s.logger.ErrorContext(ctx, "Session could not be restored",
		attr.ExtractCorrelationID(ctx),
		attr.ChatID(row.ChatID.String()),
		attr.SessionID(row.ID.String()),
		attr.Error(cause),
	)
	if err := s.repo.EndSession(ctx, nil, row.ID, sessiontypes.StateAbandoned, s.now().UTC(), nil); err != nil {
		s.logger.WarnContext(ctx, "Failed to mark session abandoned",
			attr.SessionID(row.ID.String()),
			attr.Error(err),
		)
	}
	if s.queue != nil {
		if err := s.queue.CancelIdleExpiry(ctx, row.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel idle expiry", attr.SessionID(row.ID.String()), attr.Error(err))
		}
	}
	return &sessiontypes.Failure{
		Code:    sessiontypes.CodeRestoreFailed,
		Message: cause.Error(),
	}
}
