package playerdb

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Player is a registered name within a chat. Name is normalized uppercase.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`
	ID            uuid.UUID          `bun:"id,pk,type:uuid"`
	ChatID        sharedtypes.ChatID `bun:"chat_id,notnull"`
	Name          string             `bun:"name,notnull"`
	CreatedAt     time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Shared converts the row into the engines' player value.
func (p *Player) Shared() sharedtypes.Player {
	return sharedtypes.Player{ID: sharedtypes.PlayerID(p.ID.String()), Name: p.Name}
}
