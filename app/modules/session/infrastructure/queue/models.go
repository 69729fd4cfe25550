package sessionqueue

import (
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// IdleExpiryKind is the River job kind of IdleExpiryJob.
const IdleExpiryKind = "session_idle_expiry"

// IdleExpiryJob ends a session that saw no round after LastRound.
type IdleExpiryJob struct {
	ChatID    sharedtypes.ChatID `json:"chat_id"`
	SessionID uuid.UUID          `json:"session_id"`
	LastRound int                `json:"last_round"`
}

// Kind returns the job type identifier for River
func (IdleExpiryJob) Kind() string { return IdleExpiryKind }
