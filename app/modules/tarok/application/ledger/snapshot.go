package tarokledger

import (
	"encoding/json"

	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// Snapshot is a deep copy of the ledger, gap-filled to Rounds. It shares no
// memory with the ledger it came from.
type Snapshot struct {
	Players        []sharedtypes.Player                                `json:"players"`
	Rounds         int                                                 `json:"rounds"`
	Scores         map[sharedtypes.PlayerID][]*int                     `json:"scores"`
	Stats          map[sharedtypes.PlayerID]sharedtypes.Stats          `json:"stats"`
	Resources      map[sharedtypes.PlayerID][]taroktypes.ResourceToken `json:"resources"`
	Attributes     map[sharedtypes.PlayerID][][]taroktypes.PlayerToken `json:"attributes"`
	GameAttributes []taroktypes.RoundGameTokens                        `json:"game_attributes"`
}

// Snapshot copies the current state.
func (l *Ledger) Snapshot() Snapshot {
	s := Snapshot{
		Players:        l.Players(),
		Rounds:         l.round,
		Scores:         make(map[sharedtypes.PlayerID][]*int, len(l.players)),
		Stats:          make(map[sharedtypes.PlayerID]sharedtypes.Stats, len(l.players)),
		Resources:      make(map[sharedtypes.PlayerID][]taroktypes.ResourceToken, len(l.players)),
		Attributes:     make(map[sharedtypes.PlayerID][][]taroktypes.PlayerToken, len(l.players)),
		GameAttributes: make([]taroktypes.RoundGameTokens, len(l.games)),
	}

	for _, p := range l.players {
		scores := make([]*int, l.round)
		for i, v := range upTo(l.scores[p.ID], l.round) {
			if v != nil {
				n := *v
				scores[i] = &n
			}
		}
		s.Scores[p.ID] = scores
		s.Stats[p.ID] = sharedtypes.StatsOf(scores)

		resources := make([]taroktypes.ResourceToken, l.round)
		copy(resources, l.resources[p.ID])
		s.Resources[p.ID] = resources

		attributes := make([][]taroktypes.PlayerToken, l.round)
		for i, tokens := range upTo(l.attributes[p.ID], l.round) {
			if tokens != nil {
				attributes[i] = copyTokens(tokens)
			}
		}
		s.Attributes[p.ID] = attributes
	}

	for i, g := range l.games {
		s.GameAttributes[i] = append(taroktypes.RoundGameTokens(nil), g...)
	}
	return s
}

func upTo[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// JSON encodes the snapshot. Map keys are sorted by encoding/json, so equal
// snapshots encode to identical bytes.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Totals returns the running total of each player after every round.
func (s Snapshot) Totals() map[sharedtypes.PlayerID][]int {
	out := make(map[sharedtypes.PlayerID][]int, len(s.Players))
	for _, p := range s.Players {
		out[p.ID] = sharedtypes.RunningTotals(s.Scores[p.ID])
	}
	return out
}
