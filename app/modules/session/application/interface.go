package sessionservice

import (
	"context"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// Result aliases shared by the interface and its implementation.
type (
	StartResult  = results.OperationResult[*sessiontypes.SessionInfo, *sessiontypes.Failure]
	RoundResult  = results.OperationResult[*sessiontypes.RoundOutcome, *sessiontypes.Failure]
	ReportResult = results.OperationResult[*sessiontypes.Report, *sessiontypes.Failure]
	EndResult    = results.OperationResult[*sessiontypes.EndResult, *sessiontypes.Failure]
)

// Service defines the session operations. Business outcomes come back as
// results; a non-nil error is an infrastructure failure worth retrying.
type Service interface {
	StartSession(ctx context.Context, chatID sharedtypes.ChatID, mode string) (StartResult, error)
	SubmitRound(ctx context.Context, chatID sharedtypes.ChatID, text string) (RoundResult, error)
	GetReport(ctx context.Context, chatID sharedtypes.ChatID) (ReportResult, error)
	EndSession(ctx context.Context, chatID sharedtypes.ChatID) (EndResult, error)
	// ExpireIdle ends sessionID if it still has exactly rounds committed rounds.
	ExpireIdle(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int) (EndResult, error)
	// Restore loads the active session of chatID from its persisted round log.
	Restore(ctx context.Context, chatID sharedtypes.ChatID) (StartResult, error)
}

// DirectoryProvider hands out the player directory of a chat.
type DirectoryProvider interface {
	Directory(chatID sharedtypes.ChatID) sharedtypes.Directory
}
