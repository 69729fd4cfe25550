package sessionservice

import (
	"context"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// ExpireIdle ends sessionID when no round was committed since the check was
// scheduled.
func (s *SessionService) ExpireIdle(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int) (EndResult, error) {
	return withTelemetry(s, ctx, "ExpireIdle", chatID, func(ctx context.Context) (EndResult, error) {
		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return EndResult{}, err
		}
		if fail != nil {
			return results.FailureResult[*sessiontypes.EndResult](fail), nil
		}
		if sess.id != sessionID || sess.game.Rounds() != rounds {
			return results.FailureResult[*sessiontypes.EndResult](&sessiontypes.Failure{
				Code:    sessiontypes.CodeSessionChanged,
				Message: fmt.Sprintf("session %s moved on since round %d", sessionID, rounds),
			}), nil
		}

		res, err := s.finish(ctx, e, sess, sessiontypes.StateExpired)
		if err != nil {
			return EndResult{}, err
		}
		return results.SuccessResult[*sessiontypes.EndResult, *sessiontypes.Failure](res), nil
	})
}
