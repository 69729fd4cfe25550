// Package playerservice registers player names per chat and resolves them for
// the scoring engines.
package playerservice

import (
	"context"

	playertypes "github.com/Black-And-White-Club/tarok-bot/app/modules/player/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

type (
	RegisterResult = results.OperationResult[[]playertypes.Registration, *playertypes.Failure]
	ListResult     = results.OperationResult[[]sharedtypes.Player, *playertypes.Failure]
)

// Service defines the player operations.
type Service interface {
	// RegisterPlayers registers names in chatID. Names are normalized to
	// uppercase and every name gets its own outcome; one bad name does not
	// stop the others.
	RegisterPlayers(ctx context.Context, chatID sharedtypes.ChatID, names []string, reserved []string) (RegisterResult, error)
	ListPlayers(ctx context.Context, chatID sharedtypes.ChatID) (ListResult, error)
	Resolve(ctx context.Context, chatID sharedtypes.ChatID, name string) (sharedtypes.Player, error)
	Directory(chatID sharedtypes.ChatID) sharedtypes.Directory
}
