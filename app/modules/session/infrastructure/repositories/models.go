package sessiondb

import (
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is one scoring session of a chat. At most one row per chat is
// active.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`
	ID            uuid.UUID            `bun:"id,pk,type:uuid"`
	ChatID        sharedtypes.ChatID   `bun:"chat_id,notnull"`
	Mode          sessiontypes.Mode    `bun:"mode,notnull"`
	State         sessiontypes.State   `bun:"state,notnull"`
	StartedAt     time.Time            `bun:"started_at,nullzero,notnull,default:current_timestamp"`
	EndedAt       *time.Time           `bun:"ended_at,nullzero"`
	FinalReport   *sessiontypes.Report `bun:"final_report,type:jsonb"`
}

// Round is one committed round. Replaying RawText in RoundIndex order
// rebuilds the session state; Deltas are kept for reporting.
type Round struct {
	bun.BaseModel `bun:"table:session_rounds,alias:sr"`
	SessionID     uuid.UUID                    `bun:"session_id,pk,type:uuid"`
	RoundIndex    int                          `bun:"round_index,pk"`
	RawText       string                       `bun:"raw_text,notnull"`
	Deltas        map[sharedtypes.PlayerID]int `bun:"deltas,type:jsonb"`
	CreatedAt     time.Time                    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
