// Package taroktypes holds the Tarok scoring vocabulary: game variants,
// attributes, round tokens and radlc slots with their fixed worths.
package taroktypes

import "strings"

// GameVariant is the game declared for a round.
type GameVariant string

const (
	I3   GameVariant = "I3"
	I2   GameVariant = "I2"
	I1   GameVariant = "I1"
	S3   GameVariant = "S3"
	S2   GameVariant = "S2"
	S1   GameVariant = "S1"
	SB   GameVariant = "SB"
	KL   GameVariant = "KL"
	B    GameVariant = "B"
	P    GameVariant = "P"
	BVI3 GameVariant = "BVI3"
	BVI2 GameVariant = "BVI2"
	BVI1 GameVariant = "BVI1"
	BVS3 GameVariant = "BVS3"
	BVS2 GameVariant = "BVS2"
	BVS1 GameVariant = "BVS1"
	BVSB GameVariant = "BVSB"
)

var variantWorth = map[GameVariant]int{
	I3: 10, I2: 20, I1: 30,
	S3: 40, S2: 50, S1: 60, SB: 80,
	KL: 0, B: 70, P: 60,
	BVI3: 90, BVI2: 100, BVI1: 110,
	BVS3: 120, BVS2: 130, BVS1: 140, BVSB: 150,
}

// Variants lists every game variant in table order.
var Variants = []GameVariant{I3, I2, I1, S3, S2, S1, SB, KL, B, P, BVI3, BVI2, BVI1, BVS3, BVS2, BVS1, BVSB}

// ParseGameVariant matches s case-insensitively.
func ParseGameVariant(s string) (GameVariant, bool) {
	v := GameVariant(strings.ToUpper(s))
	_, ok := variantWorth[v]
	return v, ok
}

func (v GameVariant) String() string { return string(v) }

// Worth is the base point value of the variant.
func (v GameVariant) Worth() int { return variantWorth[v] }

// IsTeam reports whether the declarer plays with supporting players.
func (v GameVariant) IsTeam() bool {
	switch v {
	case I3, I2, I1, BVI3, BVI2, BVI1:
		return true
	}
	return false
}

// GrantsResource reports whether finishing the round grants every known
// player a radlc. Klop and the solo family do not.
func (v GameVariant) GrantsResource() bool {
	switch v {
	case KL, S3, S2, S1:
		return false
	}
	return true
}

// GameAttribute is a bonus announced or achieved for the whole round.
type GameAttribute string

const (
	ZP  GameAttribute = "ZP"
	ZK  GameAttribute = "ZK"
	V   GameAttribute = "V"
	T   GameAttribute = "T"
	K   GameAttribute = "K"
	NZP GameAttribute = "NZP"
	NZK GameAttribute = "NZK"
	NV  GameAttribute = "NV"
	NT  GameAttribute = "NT"
	NK  GameAttribute = "NK"
)

var gameAttributeWorth = map[GameAttribute]int{
	ZP: 10, ZK: 10, V: 150, T: 15, K: 15,
	NZP: 20, NZK: 20, NV: 250, NT: 30, NK: 30,
}

// ParseGameAttribute matches s case-insensitively.
func ParseGameAttribute(s string) (GameAttribute, bool) {
	a := GameAttribute(strings.ToUpper(s))
	_, ok := gameAttributeWorth[a]
	return a, ok
}

func (a GameAttribute) String() string { return string(a) }

func (a GameAttribute) Worth() int { return gameAttributeWorth[a] }

// PlayerAttribute is a per-player modifier. IG and SL are role markers set
// by the rule engine; players only enter M, R and T.
type PlayerAttribute string

const (
	M  PlayerAttribute = "M"
	R  PlayerAttribute = "R"
	PT PlayerAttribute = "T"
	IG PlayerAttribute = "IG"
	SL PlayerAttribute = "SL"
)

var playerAttributeWorth = map[PlayerAttribute]int{
	M: -20, R: 0, PT: 0, IG: 0, SL: -20,
}

// ParsePlayerAttribute matches the attributes a player may enter.
func ParsePlayerAttribute(s string) (PlayerAttribute, bool) {
	a := PlayerAttribute(strings.ToUpper(s))
	switch a {
	case M, R, PT:
		return a, true
	}
	return "", false
}

func (a PlayerAttribute) String() string { return string(a) }

func (a PlayerAttribute) Worth() int { return playerAttributeWorth[a] }

// ResourceToken is one slot of a player's radlc ledger.
type ResourceToken int

const (
	// ResourceNone is a gap or a round that granted nothing.
	ResourceNone ResourceToken = iota
	ResourceAvailable
	ResourceUsed
)

func (r ResourceToken) String() string {
	switch r {
	case ResourceAvailable:
		return "available"
	case ResourceUsed:
		return "used"
	default:
		return "none"
	}
}

func (r ResourceToken) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ResourceToken) UnmarshalText(b []byte) error {
	switch string(b) {
	case "available":
		*r = ResourceAvailable
	case "used":
		*r = ResourceUsed
	default:
		*r = ResourceNone
	}
	return nil
}
