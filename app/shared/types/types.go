package sharedtypes

import (
	"context"
	"errors"
)

// ChatID identifies the chat that owns a scoring session.
type ChatID string

func (c ChatID) String() string { return string(c) }

// PlayerID is the stable identity of a registered player (uuid text).
type PlayerID string

func (p PlayerID) String() string { return string(p) }

// Player is a registered participant. Name is always uppercase.
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// ErrPlayerNotFound is returned (or wrapped) by directory lookups that miss.
var ErrPlayerNotFound = errors.New("player not found")

// Directory resolves uppercase player names within one chat. Both scoring
// engines accept it.
type Directory interface {
	Resolve(ctx context.Context, name string) (Player, error)
}
