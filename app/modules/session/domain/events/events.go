// Package sessionevents lists the subjects the session module consumes and
// produces, with their versioned payloads.
package sessionevents

import (
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

const (
	SessionStartRequestedV1 = "session.start.requested.v1"
	SessionStartedV1        = "session.started.v1"
	SessionStartFailedV1    = "session.start.failed.v1"

	RoundSubmittedV1 = "session.round.submitted.v1"
	RoundScoredV1    = "session.round.scored.v1"
	RoundRejectedV1  = "session.round.rejected.v1"

	ReportRequestedV1 = "session.report.requested.v1"
	ReportReadyV1     = "session.report.ready.v1"
	ReportFailedV1    = "session.report.failed.v1"

	SessionEndRequestedV1 = "session.end.requested.v1"
	SessionEndedV1        = "session.ended.v1"
	SessionEndFailedV1    = "session.end.failed.v1"

	// IdleExpiryRequestedV1 is published by the idle-expiry job.
	IdleExpiryRequestedV1 = "session.idle_expiry.requested.v1"
)

// SessionStartRequestedPayloadV1 asks for a session in ChatID. Mode defaults
// to tarok.
type SessionStartRequestedPayloadV1 struct {
	ChatID sharedtypes.ChatID `json:"chat_id"`
	Mode   string             `json:"mode,omitempty"`
}

type SessionStartedPayloadV1 struct {
	ChatID         sharedtypes.ChatID `json:"chat_id"`
	SessionID      uuid.UUID          `json:"session_id"`
	Mode           sessiontypes.Mode  `json:"mode"`
	StartedAt      time.Time          `json:"started_at"`
	Rounds         int                `json:"rounds"`
	AlreadyRunning bool               `json:"already_running"`
}

// SessionFailedPayloadV1 is shared by every *.failed.v1 subject.
type SessionFailedPayloadV1 struct {
	ChatID  sharedtypes.ChatID    `json:"chat_id"`
	Code    sharedtypes.ErrorCode `json:"code"`
	Message string                `json:"message"`
}

type RoundSubmittedPayloadV1 struct {
	ChatID sharedtypes.ChatID `json:"chat_id"`
	Text   string             `json:"text"`
}

type RoundScoredPayloadV1 struct {
	ChatID  sharedtypes.ChatID        `json:"chat_id"`
	Outcome sessiontypes.RoundOutcome `json:"outcome"`
}

type RoundRejectedPayloadV1 struct {
	ChatID  sharedtypes.ChatID    `json:"chat_id"`
	Text    string                `json:"text"`
	Code    sharedtypes.ErrorCode `json:"code"`
	Message string                `json:"message"`
	Token   string                `json:"token,omitempty"`
}

type ReportRequestedPayloadV1 struct {
	ChatID sharedtypes.ChatID `json:"chat_id"`
}

type ReportReadyPayloadV1 struct {
	ChatID sharedtypes.ChatID  `json:"chat_id"`
	Report sessiontypes.Report `json:"report"`
}

type SessionEndRequestedPayloadV1 struct {
	ChatID sharedtypes.ChatID `json:"chat_id"`
}

// SessionEndedPayloadV1 carries the final report and its rendered HTML.
// Reason is "ended" or "expired".
type SessionEndedPayloadV1 struct {
	ChatID    sharedtypes.ChatID  `json:"chat_id"`
	SessionID uuid.UUID           `json:"session_id"`
	Reason    sessiontypes.State  `json:"reason"`
	Report    sessiontypes.Report `json:"report"`
	FileName  string              `json:"file_name"`
	HTML      string              `json:"html"`
}

// IdleExpiryRequestedPayloadV1 ends SessionID if it is still at LastRound.
type IdleExpiryRequestedPayloadV1 struct {
	ChatID    sharedtypes.ChatID `json:"chat_id"`
	SessionID uuid.UUID          `json:"session_id"`
	LastRound int                `json:"last_round"`
}
