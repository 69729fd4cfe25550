package sessionservice

import (
	"context"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// SubmitRound scores text in the running session of chatID. The round is
// appended to the round log and applied in one transaction; a rejected round
// changes nothing.
func (s *SessionService) SubmitRound(ctx context.Context, chatID sharedtypes.ChatID, text string) (RoundResult, error) {
	return withTelemetry(s, ctx, "SubmitRound", chatID, func(ctx context.Context) (RoundResult, error) {
		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return RoundResult{}, err
		}
		if fail != nil {
			return results.FailureResult[*sessiontypes.RoundOutcome](fail), nil
		}

		prepared, err := sess.game.Prepare(ctx, text)
		if err != nil {
			return s.rejectRound(ctx, sess, err)
		}

		row := &sessiondb.Round{
			SessionID:  sess.id,
			RoundIndex: prepared.Index,
			RawText:    text,
			Deltas:     prepared.Deltas,
			CreatedAt:  s.now().UTC(),
		}

		var outcome *sessiontypes.RoundOutcome
		_, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RoundResult, error) {
			if err := s.repo.AppendRound(ctx, db, row); err != nil {
				return RoundResult{}, fmt.Errorf("failed to append round: %w", err)
			}
			o, err := sess.game.Apply(ctx, prepared)
			if err != nil {
				return RoundResult{}, err
			}
			o.SessionID = sess.id
			outcome = &o
			return RoundResult{}, nil
		})
		if err != nil {
			if outcome != nil {
				// Applied in memory but not stored: drop the session so the
				// next operation rebuilds it from the round log.
				s.detach(ctx, e)
				return RoundResult{}, fmt.Errorf("failed to commit round: %w", err)
			}
			return s.rejectRound(ctx, sess, err)
		}

		s.metrics.RecordRoundCommitted(ctx, string(sess.mode))
		s.scheduleIdleExpiry(ctx, sess)
		return results.SuccessResult[*sessiontypes.RoundOutcome, *sessiontypes.Failure](outcome), nil
	})
}

// rejectRound turns round errors into failures and passes anything else on.
func (s *SessionService) rejectRound(ctx context.Context, sess *activeSession, err error) (RoundResult, error) {
	code := sharedtypes.CodeOf(err)
	if code == "" {
		return RoundResult{}, err
	}
	s.metrics.RecordRoundRejected(ctx, string(sess.mode), string(code))
	return results.FailureResult[*sessiontypes.RoundOutcome](roundFailure(err)), nil
}

func (s *SessionService) scheduleIdleExpiry(ctx context.Context, sess *activeSession) {
	if s.queue == nil || s.cfg.IdleTimeout <= 0 {
		return
	}
	runAt := s.now().Add(s.cfg.IdleTimeout)
	if err := s.queue.ScheduleIdleExpiry(ctx, sess.chatID, sess.id, sess.game.Rounds(), runAt); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule idle expiry",
			attr.ExtractCorrelationID(ctx),
			attr.ChatID(sess.chatID.String()),
			attr.SessionID(sess.id.String()),
			attr.Error(err),
		)
	}
}
