package tarokparsers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// Directory resolves uppercase names to registered players. Misses return an
// error wrapping sharedtypes.ErrPlayerNotFound.
type Directory interface {
	Resolve(ctx context.Context, name string) (sharedtypes.Player, error)
}

// ResolvedPlayers is the player fragment of one round with every name
// resolved. Order keeps the listing order; Order[0] is the declarer.
type ResolvedPlayers struct {
	Order  []sharedtypes.Player
	Tokens taroktypes.RoundPlayerTokens
}

// ResolvePlayers resolves each "NAME,tok,..." group against dir. Directory
// failures other than a miss are returned wrapped and are not round errors.
func ResolvePlayers(ctx context.Context, groups []string, dir Directory) (ResolvedPlayers, error) {
	out := ResolvedPlayers{
		Order:  make([]sharedtypes.Player, 0, len(groups)),
		Tokens: make(taroktypes.RoundPlayerTokens, len(groups)),
	}

	for _, group := range groups {
		segments := strings.Split(group, ",")
		name := strings.ToUpper(segments[0])

		player, err := dir.Resolve(ctx, name)
		if err != nil {
			if errors.Is(err, sharedtypes.ErrPlayerNotFound) || errors.Is(err, sharedtypes.ErrUnknownPlayer) {
				return ResolvedPlayers{}, sharedtypes.NewRoundError(sharedtypes.ErrUnknownPlayer, name, "player is not registered")
			}
			return ResolvedPlayers{}, fmt.Errorf("failed to resolve player %q: %w", name, err)
		}
		if _, dup := out.Tokens[player.ID]; dup {
			return ResolvedPlayers{}, sharedtypes.NewRoundError(sharedtypes.ErrDuplicatePlayer, name, "player listed more than once")
		}

		tokens := make([]taroktypes.PlayerToken, 0, len(segments)-1)
		for _, seg := range segments[1:] {
			if a, ok := taroktypes.ParsePlayerAttribute(seg); ok {
				tokens = append(tokens, taroktypes.PlayerAttributeToken(a))
				continue
			}
			if n, ok := parseDiff(seg); ok {
				tokens = append(tokens, taroktypes.PlayerDiffToken(n))
				continue
			}
			return ResolvedPlayers{}, sharedtypes.NewRoundError(sharedtypes.ErrUnrecognizedToken, seg, "could not recognize attribute for %s", name)
		}

		out.Order = append(out.Order, player)
		out.Tokens[player.ID] = tokens
	}
	return out, nil
}
