// Package tarokrules computes the per-player deltas of one Tarok round. It
// is a pure function of the parsed round and a read-only view of the radlc
// ledger; committing the outcome is the ledger's job.
package tarokrules

import (
	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// RoundInput is a fully parsed round. Players[0] is the declarer.
type RoundInput struct {
	Game    taroktypes.RoundGameTokens
	Players []sharedtypes.Player
	Tokens  taroktypes.RoundPlayerTokens
}

// ResourceView answers whether a player holds an unused radlc.
type ResourceView interface {
	HasAvailable(id sharedtypes.PlayerID) bool
}

// Outcome is what a round does to the ledgers.
type Outcome struct {
	Variant taroktypes.GameVariant
	// Base is the shared point value after the loss penalty and doubling.
	Base    int
	Doubled bool
	// Consumer spends its front available radlc; empty when nobody does.
	Consumer sharedtypes.PlayerID
	Deltas   map[sharedtypes.PlayerID]int
	// Tokens are the player tokens with the IG and SL roles appended.
	Tokens taroktypes.RoundPlayerTokens
	// Grant is true when every known player receives a radlc this round.
	Grant bool
}

// Evaluate scores in.
func Evaluate(in RoundInput, view ResourceView) (Outcome, error) {
	if len(in.Players) == 0 {
		return Outcome{}, sharedtypes.NewRoundError(sharedtypes.ErrNoPlayers, "", "round lists no players")
	}
	variant, ok := in.Game.Variant()
	if !ok {
		return Outcome{}, sharedtypes.NewRoundError(sharedtypes.ErrNoGameSpecified, "", "round has no game variant")
	}

	base := 0
	if variant != taroktypes.KL {
		base = in.Game.Sum()
		if in.Game.HasNegativeDiff() {
			base -= 2 * variant.Worth()
		}
	}

	declarer := in.Players[0].ID
	tokens := make(taroktypes.RoundPlayerTokens, len(in.Players))
	for i, p := range in.Players {
		own := append([]taroktypes.PlayerToken(nil), in.Tokens[p.ID]...)
		switch {
		case i == 0:
			own = append(own, taroktypes.PlayerAttributeToken(taroktypes.IG))
		case variant.IsTeam():
			own = append(own, taroktypes.PlayerAttributeToken(taroktypes.SL))
		}
		tokens[p.ID] = own
	}

	out := Outcome{
		Variant: variant,
		Grant:   variant.GrantsResource(),
		Tokens:  tokens,
		Deltas:  make(map[sharedtypes.PlayerID]int, len(in.Players)),
	}

	if variant != taroktypes.KL && view != nil && view.HasAvailable(declarer) {
		base *= 2
		out.Doubled = true
		out.Consumer = declarer
	}
	out.Base = base

	for _, p := range in.Players {
		out.Deltas[p.ID] = base + taroktypes.SumPlayerTokens(tokens[p.ID])
	}
	return out, nil
}
