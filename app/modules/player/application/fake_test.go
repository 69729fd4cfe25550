package playerservice

import (
	"context"
	"sync"

	playerdb "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakePlayerRepo stores players in memory unless a Func overrides the call.
type FakePlayerRepo struct {
	mu      sync.Mutex
	trace   []string
	players map[sharedtypes.ChatID]map[string]playerdb.Player

	CreatePlayerFunc func(ctx context.Context, db bun.IDB, player *playerdb.Player) error
	GetByNameFunc    func(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID, name string) (*playerdb.Player, error)
	ListPlayersFunc  func(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) ([]playerdb.Player, error)
}

func NewFakePlayerRepo() *FakePlayerRepo {
	return &FakePlayerRepo{trace: []string{}, players: map[sharedtypes.ChatID]map[string]playerdb.Player{}}
}

func (f *FakePlayerRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakePlayerRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakePlayerRepo) CreatePlayer(ctx context.Context, db bun.IDB, player *playerdb.Player) error {
	f.record("CreatePlayer")
	if f.CreatePlayerFunc != nil {
		return f.CreatePlayerFunc(ctx, db, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	chat := f.players[player.ChatID]
	if chat == nil {
		chat = map[string]playerdb.Player{}
		f.players[player.ChatID] = chat
	}
	if _, ok := chat[player.Name]; ok {
		return playerdb.ErrPlayerExists
	}
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	chat[player.Name] = *player
	return nil
}

func (f *FakePlayerRepo) GetByName(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID, name string) (*playerdb.Player, error) {
	f.record("GetByName")
	if f.GetByNameFunc != nil {
		return f.GetByNameFunc(ctx, db, chatID, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[chatID][name]
	if !ok {
		return nil, playerdb.ErrNotFound
	}
	return &p, nil
}

func (f *FakePlayerRepo) ListPlayers(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) ([]playerdb.Player, error) {
	f.record("ListPlayers")
	if f.ListPlayersFunc != nil {
		return f.ListPlayersFunc(ctx, db, chatID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []playerdb.Player
	for _, p := range f.players[chatID] {
		out = append(out, p)
	}
	return out, nil
}

var _ playerdb.Repository = (*FakePlayerRepo)(nil)
