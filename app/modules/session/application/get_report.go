package sessionservice

import (
	"context"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// GetReport returns the interim report of the running session.
func (s *SessionService) GetReport(ctx context.Context, chatID sharedtypes.ChatID) (ReportResult, error) {
	return withTelemetry(s, ctx, "GetReport", chatID, func(ctx context.Context) (ReportResult, error) {
		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return ReportResult{}, err
		}
		if fail != nil {
			return results.FailureResult[*sessiontypes.Report](fail), nil
		}

		report := sess.game.Report()
		report.SessionID = sess.id
		return results.SuccessResult[*sessiontypes.Report, *sessiontypes.Failure](&report), nil
	})
}
