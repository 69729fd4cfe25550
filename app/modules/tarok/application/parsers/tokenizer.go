// Package tarokparsers turns a raw round line into typed game and player
// tokens. Nothing here touches session state.
package tarokparsers

import (
	"strings"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// RoundText is a round line split into its fragments.
type RoundText struct {
	Command string
	Game    string
	// Groups holds one "NAME,tok,..." entry per listed player.
	Groups []string
}

// PlayerFragment is the player groups joined by single spaces.
func (r RoundText) PlayerFragment() string { return strings.Join(r.Groups, " ") }

// Tokenize splits text on whitespace. The first field is the command marker,
// the second the game fragment and the rest the player fragment.
func Tokenize(text string) (RoundText, error) {
	fields := strings.Fields(text)
	switch {
	case len(fields) < 2:
		return RoundText{}, sharedtypes.NewRoundError(sharedtypes.ErrMalformedRound, "", "round has no game fragment")
	case len(fields) < 3:
		return RoundText{}, sharedtypes.NewRoundError(sharedtypes.ErrMalformedRound, "", "round has no player fragment")
	}
	return RoundText{
		Command: fields[0],
		Game:    fields[1],
		Groups:  fields[2:],
	}, nil
}
