package tarokparsers

import (
	"context"
	"fmt"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// FakeDirectory resolves names from a fixed roster.
type FakeDirectory struct {
	trace   []string
	players map[string]sharedtypes.Player

	ResolveFunc func(ctx context.Context, name string) (sharedtypes.Player, error)
}

func NewFakeDirectory(names ...string) *FakeDirectory {
	f := &FakeDirectory{players: make(map[string]sharedtypes.Player, len(names))}
	for _, n := range names {
		f.players[n] = sharedtypes.Player{ID: sharedtypes.PlayerID("id-" + n), Name: n}
	}
	return f
}

func (f *FakeDirectory) Resolve(ctx context.Context, name string) (sharedtypes.Player, error) {
	f.trace = append(f.trace, "Resolve:"+name)
	if f.ResolveFunc != nil {
		return f.ResolveFunc(ctx, name)
	}
	p, ok := f.players[name]
	if !ok {
		return sharedtypes.Player{}, fmt.Errorf("lookup %s: %w", name, sharedtypes.ErrPlayerNotFound)
	}
	return p, nil
}

func (f *FakeDirectory) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Directory = (*FakeDirectory)(nil)
