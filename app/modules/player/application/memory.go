package playerservice

import (
	"context"
	"fmt"
	"sync"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// MemoryDirectory is a roster without storage, shared by every chat. It serves
// offline replays.
type MemoryDirectory struct {
	mu      sync.RWMutex
	players map[string]sharedtypes.Player
}

// NewMemoryDirectory registers names, normalized, with fresh ids.
func NewMemoryDirectory(names ...string) *MemoryDirectory {
	d := &MemoryDirectory{players: make(map[string]sharedtypes.Player, len(names))}
	for _, n := range names {
		d.Add(n)
	}
	return d
}

// Add registers name unless it is already known and returns the player.
func (d *MemoryDirectory) Add(name string) sharedtypes.Player {
	name = NormalizeName(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.players[name]; ok {
		return p
	}
	p := sharedtypes.Player{ID: sharedtypes.PlayerID(uuid.NewString()), Name: name}
	d.players[name] = p
	return p
}

func (d *MemoryDirectory) Resolve(_ context.Context, name string) (sharedtypes.Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.players[NormalizeName(name)]
	if !ok {
		return sharedtypes.Player{}, fmt.Errorf("%s: %w", name, sharedtypes.ErrPlayerNotFound)
	}
	return p, nil
}

// Directory returns d for every chat.
func (d *MemoryDirectory) Directory(sharedtypes.ChatID) sharedtypes.Directory { return d }
