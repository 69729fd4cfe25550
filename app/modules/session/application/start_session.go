package sessionservice

import (
	"context"
	"errors"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StartSession starts a session of mode in chatID. Starting the mode that is
// already running reports the running session; another mode is refused.
func (s *SessionService) StartSession(ctx context.Context, chatID sharedtypes.ChatID, modeName string) (StartResult, error) {
	return withTelemetry(s, ctx, "StartSession", chatID, func(ctx context.Context) (StartResult, error) {
		mode, ok := sessiontypes.ParseMode(modeName)
		if !ok {
			return results.FailureResult[*sessiontypes.SessionInfo](&sessiontypes.Failure{
				Code:    sessiontypes.CodeInvalidMode,
				Message: fmt.Sprintf("unknown mode %q", modeName),
				Token:   modeName,
			}), nil
		}

		e := s.registry.acquire(chatID)
		defer s.registry.release(chatID, e)

		sess, fail, err := s.loadSession(ctx, e, chatID)
		if err != nil {
			return StartResult{}, err
		}
		if sess != nil {
			return runningResult(sess, mode), nil
		}
		if fail.Code == sessiontypes.CodeRestoreFailed {
			s.logger.WarnContext(ctx, "Starting over after failed restore",
				attr.ExtractCorrelationID(ctx),
				attr.ChatID(chatID.String()),
				attr.String("reason", fail.Message),
			)
		}

		game, err := s.newGame(chatID, mode)
		if err != nil {
			return StartResult{}, err
		}
		row := &sessiondb.Session{
			ID:        uuid.New(),
			ChatID:    chatID,
			Mode:      mode,
			State:     sessiontypes.StateActive,
			StartedAt: s.now().UTC(),
		}
		_, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (StartResult, error) {
			return StartResult{}, s.repo.CreateSession(ctx, db, row)
		})
		if errors.Is(err, sessiondb.ErrActiveSessionExists) {
			// Another instance won the race; report its session.
			sess, fail, err = s.loadSession(ctx, e, chatID)
			if err != nil {
				return StartResult{}, err
			}
			if fail != nil {
				return results.FailureResult[*sessiontypes.SessionInfo](fail), nil
			}
			return runningResult(sess, mode), nil
		}
		if err != nil {
			return StartResult{}, fmt.Errorf("failed to create session: %w", err)
		}

		sess = &activeSession{id: row.ID, chatID: chatID, mode: mode, startedAt: row.StartedAt, game: game}
		s.attach(ctx, e, sess)
		info := sess.info(sessiontypes.StateActive)
		return results.SuccessResult[*sessiontypes.SessionInfo, *sessiontypes.Failure](&info), nil
	})
}

func runningResult(sess *activeSession, mode sessiontypes.Mode) StartResult {
	if sess.mode != mode {
		return results.FailureResult[*sessiontypes.SessionInfo](&sessiontypes.Failure{
			Code:    sessiontypes.CodeModeMismatch,
			Message: fmt.Sprintf("a %s session is already running", sess.mode),
			Token:   string(mode),
		})
	}
	info := sess.info(sessiontypes.StateActive)
	info.AlreadyRunning = true
	return results.SuccessResult[*sessiontypes.SessionInfo, *sessiontypes.Failure](&info)
}
