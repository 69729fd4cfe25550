package sessionservice

import (
	"context"
	"errors"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionreport "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/report"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// EndSession closes the running session and renders its final report.
func (s *SessionService) EndSession(ctx context.Context, chatID sharedtypes.ChatID) (EndResult, error) {
	return withTelemetry(s, ctx, "EndSession", chatID, func(ctx context.Context) (EndResult, error) {
		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return EndResult{}, err
		}
		if fail != nil {
			return results.FailureResult[*sessiontypes.EndResult](fail), nil
		}

		res, err := s.finish(ctx, e, sess, sessiontypes.StateEnded)
		if err != nil {
			return EndResult{}, err
		}
		return results.SuccessResult[*sessiontypes.EndResult, *sessiontypes.Failure](res), nil
	})
}

// finish ends the game held by the locked entry e and records state. The
// session leaves the registry even when storing fails, so a retry starts
// from the persisted round log.
func (s *SessionService) finish(ctx context.Context, e *entry, sess *activeSession, state sessiontypes.State) (*sessiontypes.EndResult, error) {
	defer s.detach(ctx, e)

	report := sess.game.End()
	report.SessionID = sess.id
	endedAt := s.now().UTC()

	html, err := sessionreport.HTML(report)
	if err != nil {
		return nil, err
	}

	_, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (EndResult, error) {
		return EndResult{}, s.repo.EndSession(ctx, db, sess.id, state, endedAt, &report)
	})
	switch {
	case errors.Is(err, sessiondb.ErrNoRowsAffected):
		s.logger.WarnContext(ctx, "Session was already closed in storage",
			attr.ExtractCorrelationID(ctx),
			attr.SessionID(sess.id.String()),
		)
	case err != nil:
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	if s.queue != nil && state != sessiontypes.StateExpired {
		if err := s.queue.CancelIdleExpiry(ctx, sess.id); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel idle expiry",
				attr.ExtractCorrelationID(ctx),
				attr.SessionID(sess.id.String()),
				attr.Error(err),
			)
		}
	}

	return &sessiontypes.EndResult{
		Session:  sess.info(state),
		Report:   report,
		FileName: sessionreport.FileName(sess.mode, endedAt, "html"),
		HTML:     html,
	}, nil
}
