// Package sessiontypes holds the values exchanged between the session
// service, its handlers and the report renderers.
package sessiontypes

import (
	"strings"
	"time"

	tarokengine "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application"
	tarokledger "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application/ledger"
	tableengine "github.com/Black-And-White-Club/tarok-bot/app/modules/table/application"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// Mode selects the scoring engine of a session.
type Mode string

const (
	ModeTarok Mode = "tarok"
	ModeTable Mode = "table"
)

// ParseMode accepts a mode name in any case. An empty name means tarok.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTarok:
		return ModeTarok, true
	case ModeTable:
		return ModeTable, true
	}
	return "", false
}

// State is the lifecycle state of a persisted session.
type State string

const (
	StateActive    State = "active"
	StateEnded     State = "ended"
	StateExpired   State = "expired"
	StateAbandoned State = "abandoned"
)

// Session level failure codes. Round rejections use the codes in sharedtypes.
const (
	CodeNoSession      sharedtypes.ErrorCode = "NO_SESSION"
	CodeModeMismatch   sharedtypes.ErrorCode = "SESSION_MODE_MISMATCH"
	CodeInvalidMode    sharedtypes.ErrorCode = "INVALID_MODE"
	CodeRestoreFailed  sharedtypes.ErrorCode = "RESTORE_FAILED"
	CodeSessionChanged sharedtypes.ErrorCode = "SESSION_CHANGED"
)

// Failure is the business failure returned by session operations.
type Failure struct {
	Code    sharedtypes.ErrorCode `json:"code"`
	Message string                `json:"message"`
	Token   string                `json:"token,omitempty"`
}

func (f *Failure) Error() string { return string(f.Code) + ": " + f.Message }

// SessionInfo describes a running or finished session.
type SessionInfo struct {
	ID             uuid.UUID          `json:"id"`
	ChatID         sharedtypes.ChatID `json:"chat_id"`
	Mode           Mode               `json:"mode"`
	State          State              `json:"state"`
	StartedAt      time.Time          `json:"started_at"`
	Rounds         int                `json:"rounds"`
	AlreadyRunning bool               `json:"already_running,omitempty"`
}

// RoundOutcome is a committed round. Exactly one of Tarok and Table is set,
// matching Mode.
type RoundOutcome struct {
	SessionID uuid.UUID                `json:"session_id"`
	Mode      Mode                     `json:"mode"`
	Round     int                      `json:"round"`
	Tarok     *tarokengine.RoundResult `json:"tarok,omitempty"`
	Table     *tableengine.RoundResult `json:"table,omitempty"`
}

// Deltas returns the per-player score changes of the round.
func (o RoundOutcome) Deltas() map[sharedtypes.PlayerID]int {
	switch {
	case o.Tarok != nil:
		return o.Tarok.Deltas
	case o.Table != nil:
		return o.Table.Deltas
	}
	return nil
}

// Report is a read-only view of a session's scores. Exactly one of Tarok and
// Table is set, matching Mode.
type Report struct {
	SessionID uuid.UUID             `json:"session_id"`
	Mode      Mode                  `json:"mode"`
	Rounds    int                   `json:"rounds"`
	Tarok     *tarokledger.Snapshot `json:"tarok,omitempty"`
	Table     *tableengine.Snapshot `json:"table,omitempty"`
}

// Players returns the report's players in join order.
func (r Report) Players() []sharedtypes.Player {
	switch {
	case r.Tarok != nil:
		return r.Tarok.Players
	case r.Table != nil:
		return r.Table.Players
	}
	return nil
}

// Scores returns the gap-filled score history of every player.
func (r Report) Scores() map[sharedtypes.PlayerID][]*int {
	switch {
	case r.Tarok != nil:
		return r.Tarok.Scores
	case r.Table != nil:
		return r.Table.Scores
	}
	return nil
}

// Stats returns sum, min and max per player.
func (r Report) Stats() map[sharedtypes.PlayerID]sharedtypes.Stats {
	switch {
	case r.Tarok != nil:
		return r.Tarok.Stats
	case r.Table != nil:
		return r.Table.Stats
	}
	return nil
}

// EndResult is what a finished session leaves behind.
type EndResult struct {
	Session  SessionInfo `json:"session"`
	Report   Report      `json:"report"`
	FileName string      `json:"file_name"`
	HTML     string      `json:"html"`
}
