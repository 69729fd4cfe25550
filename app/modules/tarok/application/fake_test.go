package tarokengine

import (
	"context"
	"fmt"
	"strings"

	tarokparsers "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application/parsers"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// FakeDirectory knows a fixed set of names; ids are the lowercase names.
type FakeDirectory struct {
	trace []string
	names map[string]bool

	ResolveFunc func(ctx context.Context, name string) (sharedtypes.Player, error)
}

func NewFakeDirectory(names ...string) *FakeDirectory {
	f := &FakeDirectory{names: map[string]bool{}}
	for _, n := range names {
		f.names[n] = true
	}
	return f
}

func (f *FakeDirectory) Resolve(ctx context.Context, name string) (sharedtypes.Player, error) {
	f.trace = append(f.trace, "Resolve:"+name)
	if f.ResolveFunc != nil {
		return f.ResolveFunc(ctx, name)
	}
	if !f.names[name] {
		return sharedtypes.Player{}, fmt.Errorf("%s: %w", name, sharedtypes.ErrPlayerNotFound)
	}
	return sharedtypes.Player{ID: sharedtypes.PlayerID(strings.ToLower(name)), Name: name}, nil
}

func (f *FakeDirectory) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ tarokparsers.Directory = (*FakeDirectory)(nil)
