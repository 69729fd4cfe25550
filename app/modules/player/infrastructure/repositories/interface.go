package playerdb

import (
	"context"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// Repository defines the contract for player persistence. A nil db uses the
// repository's own connection.
//
// Error semantics:
//   - ErrNotFound: no player with that name in the chat
//   - ErrPlayerExists: the name is already registered in the chat
//   - Other errors: infrastructure failures
type Repository interface {
	CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error
	GetByName(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID, name string) (*Player, error)
	ListPlayers(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) ([]Player, error)
}
