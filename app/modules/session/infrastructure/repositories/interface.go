package sessiondb

import (
	"context"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for session persistence. A nil db uses the
// repository's own connection.
//
// Error semantics:
//   - ErrNotFound: no matching row (GetActiveSession)
//   - ErrNoRowsAffected: UPDATE matched no active session (EndSession)
//   - ErrActiveSessionExists: the chat already has an active session
//   - Other errors: infrastructure failures
type Repository interface {
	// CreateSession inserts an active session.
	CreateSession(ctx context.Context, db bun.IDB, session *Session) error

	// GetActiveSession returns the active session of chatID.
	GetActiveSession(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*Session, error)

	// EndSession moves an active session to state and stores its final report.
	EndSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID, state sessiontypes.State, endedAt time.Time, report *sessiontypes.Report) error

	// AppendRound stores one committed round.
	AppendRound(ctx context.Context, db bun.IDB, round *Round) error

	// ListRounds returns the rounds of a session ordered by index.
	ListRounds(ctx context.Context, db bun.IDB, sessionID uuid.UUID) ([]Round, error)
}
