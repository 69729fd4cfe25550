// Package playerevents lists the player module subjects and payloads.
package playerevents

import (
	playertypes "github.com/Black-And-White-Club/tarok-bot/app/modules/player/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

const (
	PlayerRegisterRequestedV1 = "player.register.requested.v1"
	PlayerRegisteredV1        = "player.registered.v1"
	PlayerRegisterFailedV1    = "player.register.failed.v1"
)

type PlayerRegisterRequestedPayloadV1 struct {
	ChatID sharedtypes.ChatID `json:"chat_id"`
	Names  []string           `json:"names"`
}

type PlayerRegisteredPayloadV1 struct {
	ChatID        sharedtypes.ChatID         `json:"chat_id"`
	Registrations []playertypes.Registration `json:"registrations"`
}

type PlayerRegisterFailedPayloadV1 struct {
	ChatID  sharedtypes.ChatID    `json:"chat_id"`
	Code    sharedtypes.ErrorCode `json:"code"`
	Message string                `json:"message"`
}
