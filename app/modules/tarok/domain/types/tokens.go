package taroktypes

import (
	"fmt"
	"strconv"

	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// TokenKind tags which field of a token is set.
type TokenKind uint8

const (
	KindVariant TokenKind = iota + 1
	KindAttribute
	KindDiff
)

// GameToken is one classified segment of the game fragment.
type GameToken struct {
	Kind      TokenKind
	Variant   GameVariant
	Attribute GameAttribute
	Diff      int
}

func VariantToken(v GameVariant) GameToken { return GameToken{Kind: KindVariant, Variant: v} }
func GameAttributeToken(a GameAttribute) GameToken { return GameToken{Kind: KindAttribute, Attribute: a} }
func GameDiffToken(n int) GameToken { return GameToken{Kind: KindDiff, Diff: n} }

// Worth is the point contribution of the token to the base.
func (t GameToken) Worth() int {
	switch t.Kind {
	case KindVariant:
		return t.Variant.Worth()
	case KindAttribute:
		return t.Attribute.Worth()
	case KindDiff:
		return t.Diff
	}
	return 0
}

func (t GameToken) String() string {
	switch t.Kind {
	case KindVariant:
		return t.Variant.String()
	case KindAttribute:
		return t.Attribute.String()
	case KindDiff:
		return strconv.Itoa(t.Diff)
	}
	return ""
}

func (t GameToken) MarshalText() ([]byte, error) {
	if t.Kind == 0 {
		return nil, fmt.Errorf("empty game token")
	}
	return []byte(t.String()), nil
}

func (t *GameToken) UnmarshalText(b []byte) error {
	s := string(b)
	if v, ok := ParseGameVariant(s); ok {
		*t = VariantToken(v)
		return nil
	}
	if a, ok := ParseGameAttribute(s); ok {
		*t = GameAttributeToken(a)
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid game token %q", s)
	}
	*t = GameDiffToken(n)
	return nil
}

// PlayerToken is one classified segment of a player group.
type PlayerToken struct {
	Kind      TokenKind
	Attribute PlayerAttribute
	Diff      int
}

func PlayerAttributeToken(a PlayerAttribute) PlayerToken { return PlayerToken{Kind: KindAttribute, Attribute: a} }
func PlayerDiffToken(n int) PlayerToken { return PlayerToken{Kind: KindDiff, Diff: n} }

func (t PlayerToken) Worth() int {
	switch t.Kind {
	case KindAttribute:
		return t.Attribute.Worth()
	case KindDiff:
		return t.Diff
	}
	return 0
}

func (t PlayerToken) String() string {
	switch t.Kind {
	case KindAttribute:
		return t.Attribute.String()
	case KindDiff:
		return strconv.Itoa(t.Diff)
	}
	return ""
}

func (t PlayerToken) MarshalText() ([]byte, error) {
	if t.Kind == 0 {
		return nil, fmt.Errorf("empty player token")
	}
	return []byte(t.String()), nil
}

func (t *PlayerToken) UnmarshalText(b []byte) error {
	s := string(b)
	switch a := PlayerAttribute(s); a {
	case M, R, PT, IG, SL:
		*t = PlayerAttributeToken(a)
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid player token %q", s)
	}
	*t = PlayerDiffToken(n)
	return nil
}

// RoundGameTokens is the classified game fragment of one round.
type RoundGameTokens []GameToken

// Variant returns the declared game variant.
func (r RoundGameTokens) Variant() (GameVariant, bool) {
	for _, t := range r {
		if t.Kind == KindVariant {
			return t.Variant, true
		}
	}
	return "", false
}

// Sum adds up the worth of every token.
func (r RoundGameTokens) Sum() int {
	total := 0
	for _, t := range r {
		total += t.Worth()
	}
	return total
}

// HasNegativeDiff reports whether the round carries a losing numeric diff.
func (r RoundGameTokens) HasNegativeDiff() bool {
	for _, t := range r {
		if t.Kind == KindDiff && t.Diff < 0 {
			return true
		}
	}
	return false
}

// RoundPlayerTokens maps each listed player to their tokens for one round.
type RoundPlayerTokens map[sharedtypes.PlayerID][]PlayerToken

// SumPlayerTokens adds up the worth of tokens.
func SumPlayerTokens(tokens []PlayerToken) int {
	total := 0
	for _, t := range tokens {
		total += t.Worth()
	}
	return total
}
