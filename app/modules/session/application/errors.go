package sessionservice

import (
	"errors"
	"fmt"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// ErrUnknownMode is returned by NewGame for a mode without an engine.
var ErrUnknownMode = errors.New("unknown session mode")

func noSession(chatID sharedtypes.ChatID) *sessiontypes.Failure {
	return &sessiontypes.Failure{
		Code:    sessiontypes.CodeNoSession,
		Message: fmt.Sprintf("chat %s has no running session", chatID),
	}
}

// roundFailure converts a round rejection into a failure payload.
func roundFailure(err error) *sessiontypes.Failure {
	f := &sessiontypes.Failure{Code: sharedtypes.CodeOf(err), Message: err.Error()}
	var re *sharedtypes.RoundError
	if errors.As(err, &re) {
		f.Message = re.Message
		f.Token = re.Token
	}
	return f
}
