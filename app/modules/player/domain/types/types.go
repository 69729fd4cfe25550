// Package playertypes holds the values of player registration.
package playertypes

import sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"

// Status is the outcome of registering one name.
type Status string

const (
	StatusRegistered        Status = "registered"
	StatusAlreadyRegistered Status = "already_registered"
	StatusReserved          Status = "reserved"
	StatusDuplicate         Status = "duplicate"
	StatusInvalid           Status = "invalid"
)

// Registration is the per-name result of a registration request. Player is
// set for registered and already registered names.
type Registration struct {
	Name   string              `json:"name"`
	Status Status              `json:"status"`
	Player *sharedtypes.Player `json:"player,omitempty"`
	Reason string              `json:"reason,omitempty"`
}

// CodeNoNames rejects a registration request without names.
const CodeNoNames sharedtypes.ErrorCode = "NO_NAMES"

// Failure is the business failure of a player operation.
type Failure struct {
	Code    sharedtypes.ErrorCode `json:"code"`
	Message string                `json:"message"`
}

func (f *Failure) Error() string { return string(f.Code) + ": " + f.Message }
