package playerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound wraps sharedtypes.ErrPlayerNotFound so directory callers
	// can match either.
	ErrNotFound = fmt.Errorf("player row missing: %w", sharedtypes.ErrPlayerNotFound)

	// ErrPlayerExists is returned when the name is taken in the chat.
	ErrPlayerExists = errors.New("player already registered")
)

const uniqueViolation = "23505"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new player repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(player).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return ErrPlayerExists
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *Impl) GetByName(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID, name string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().
		Model(player).
		Where("chat_id = ?", chatID).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (r *Impl) ListPlayers(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) ([]Player, error) {
	db = r.resolveDB(db)
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("chat_id = ?", chatID).
		Order("created_at ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}
