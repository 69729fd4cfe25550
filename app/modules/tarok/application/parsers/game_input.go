package tarokparsers

import (
	"strconv"
	"strings"

	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// GameResolver classifies the comma separated game fragment.
//
// Each segment is tried as a game variant, then a game attribute, then a
// signed integer. Once a variant has been taken, later segments can no longer
// be variants; once a diff has been taken, later segments can no longer be
// diffs. Such a segment falls through to the remaining categories and is
// rejected if none match. With Strict set a second variant or diff is
// rejected outright.
type GameResolver struct {
	Strict bool
}

// ResolveGameTokens resolves fragment with the default first-wins policy.
func ResolveGameTokens(fragment string) (taroktypes.RoundGameTokens, error) {
	return GameResolver{}.Resolve(fragment)
}

func (g GameResolver) Resolve(fragment string) (taroktypes.RoundGameTokens, error) {
	var (
		tokens      taroktypes.RoundGameTokens
		variantSeen bool
		diffSeen    bool
	)

	for _, seg := range strings.Split(fragment, ",") {
		if v, ok := taroktypes.ParseGameVariant(seg); ok {
			if !variantSeen {
				tokens = append(tokens, taroktypes.VariantToken(v))
				variantSeen = true
				continue
			}
			if g.Strict {
				return nil, sharedtypes.NewRoundError(sharedtypes.ErrUnrecognizedToken, seg, "game variant already declared")
			}
		}

		if a, ok := taroktypes.ParseGameAttribute(seg); ok {
			tokens = append(tokens, taroktypes.GameAttributeToken(a))
			continue
		}

		if n, ok := parseDiff(seg); ok {
			if !diffSeen {
				tokens = append(tokens, taroktypes.GameDiffToken(n))
				diffSeen = true
				continue
			}
			if g.Strict {
				return nil, sharedtypes.NewRoundError(sharedtypes.ErrUnrecognizedToken, seg, "game diff already given")
			}
		}

		return nil, sharedtypes.NewRoundError(sharedtypes.ErrUnrecognizedToken, seg, "could not recognize game token")
	}

	if !variantSeen {
		return nil, sharedtypes.NewRoundError(sharedtypes.ErrNoGameSpecified, fragment, "no game variant in game fragment")
	}
	return tokens, nil
}

// parseDiff accepts an optionally signed base 10 integer.
func parseDiff(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
