// Package tableengine is the plain score table: each round lists players and
// the points they scored, with no rules applied.
package tableengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

var (
	// ErrStaleRound is returned by Apply when the table moved on after Prepare.
	ErrStaleRound = errors.New("prepared round is stale")

	// ErrEnded is returned for rounds submitted after End.
	ErrEnded = errors.New("table already ended")
)

// Directory resolves uppercase player names.
type Directory interface {
	Resolve(ctx context.Context, name string) (sharedtypes.Player, error)
}

// Engine keeps one gap-filled score history per player.
type Engine struct {
	dir     Directory
	logger  *slog.Logger
	players []sharedtypes.Player
	scores  map[sharedtypes.PlayerID][]*int
	round   int
	ended   bool
}

func New(dir Directory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		dir:    dir,
		logger: logger,
		scores: make(map[sharedtypes.PlayerID][]*int),
	}
}

// PreparedRound holds resolved scores not yet written to the table.
type PreparedRound struct {
	Text    string
	Round   int
	Players []sharedtypes.Player
	Scores  []int
}

// RoundResult describes a committed round.
type RoundResult struct {
	Round    int                          `json:"round"`
	Players  []sharedtypes.Player         `json:"players"`
	Deltas   map[sharedtypes.PlayerID]int `json:"deltas"`
	Admitted []sharedtypes.Player         `json:"admitted,omitempty"`
}

// Snapshot is a deep copy of the table gap-filled to Rounds.
type Snapshot struct {
	Players []sharedtypes.Player                       `json:"players"`
	Rounds  int                                        `json:"rounds"`
	Scores  map[sharedtypes.PlayerID][]*int            `json:"scores"`
	Stats   map[sharedtypes.PlayerID]sharedtypes.Stats `json:"stats"`
}

// JSON encodes the snapshot deterministically.
func (s Snapshot) JSON() ([]byte, error) { return json.Marshal(s) }

// Prepare parses "<cmd> NAME SCORE [NAME SCORE]..." and resolves the names.
func (e *Engine) Prepare(ctx context.Context, text string) (*PreparedRound, error) {
	if e.ended {
		return nil, ErrEnded
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, sharedtypes.NewRoundError(sharedtypes.ErrNoPlayers, "", "round lists no players")
	}
	pairs := fields[1:]
	if len(pairs)%2 != 0 {
		return nil, sharedtypes.NewRoundError(sharedtypes.ErrMalformedRound, pairs[len(pairs)-1], "number of players and scores do not match")
	}

	p := &PreparedRound{Text: text, Round: e.round}
	seen := make(map[sharedtypes.PlayerID]bool, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		score, err := strconv.Atoi(pairs[i+1])
		if err != nil {
			return nil, sharedtypes.NewRoundError(sharedtypes.ErrUnrecognizedToken, pairs[i+1], "score is not a number")
		}

		name := strings.ToUpper(pairs[i])
		player, err := e.dir.Resolve(ctx, name)
		if err != nil {
			if errors.Is(err, sharedtypes.ErrPlayerNotFound) || errors.Is(err, sharedtypes.ErrUnknownPlayer) {
				return nil, sharedtypes.NewRoundError(sharedtypes.ErrUnknownPlayer, name, "player is not registered")
			}
			return nil, fmt.Errorf("failed to resolve player %q: %w", name, err)
		}
		if seen[player.ID] {
			return nil, sharedtypes.NewRoundError(sharedtypes.ErrDuplicatePlayer, name, "player listed more than once")
		}
		seen[player.ID] = true

		p.Players = append(p.Players, player)
		p.Scores = append(p.Scores, score)
	}
	return p, nil
}

// Apply writes a prepared round.
func (e *Engine) Apply(ctx context.Context, p *PreparedRound) (RoundResult, error) {
	if e.ended {
		return RoundResult{}, ErrEnded
	}
	if p.Round != e.round {
		return RoundResult{}, fmt.Errorf("%w: prepared for round %d, table at %d", ErrStaleRound, p.Round, e.round)
	}

	res := RoundResult{
		Round:   p.Round,
		Players: p.Players,
		Deltas:  make(map[sharedtypes.PlayerID]int, len(p.Players)),
	}
	for i, player := range p.Players {
		if _, known := e.scores[player.ID]; !known {
			e.players = append(e.players, player)
			e.scores[player.ID] = nil
			res.Admitted = append(res.Admitted, player)
		}
		res.Deltas[player.ID] = p.Scores[i]
	}

	e.fillGaps()
	for _, player := range e.players {
		if d, ok := res.Deltas[player.ID]; ok {
			e.scores[player.ID] = append(e.scores[player.ID], &d)
			continue
		}
		e.scores[player.ID] = append(e.scores[player.ID], nil)
	}
	e.round++

	e.logger.DebugContext(ctx, "Table round committed",
		attr.ExtractCorrelationID(ctx),
		attr.Int("round", p.Round),
		attr.Int("players", len(p.Players)),
	)
	return res, nil
}

// SubmitRound prepares and commits text in one step.
func (e *Engine) SubmitRound(ctx context.Context, text string) (RoundResult, error) {
	p, err := e.Prepare(ctx, text)
	if err != nil {
		return RoundResult{}, err
	}
	return e.Apply(ctx, p)
}

// Snapshot returns the interim view.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Players: append([]sharedtypes.Player(nil), e.players...),
		Rounds:  e.round,
		Scores:  make(map[sharedtypes.PlayerID][]*int, len(e.players)),
		Stats:   make(map[sharedtypes.PlayerID]sharedtypes.Stats, len(e.players)),
	}
	for _, p := range e.players {
		scores := make([]*int, e.round)
		for i, v := range e.scores[p.ID] {
			if v != nil && i < e.round {
				n := *v
				scores[i] = &n
			}
		}
		s.Scores[p.ID] = scores
		s.Stats[p.ID] = sharedtypes.StatsOf(scores)
	}
	return s
}

// End gap-fills the table and returns the final view. It is idempotent.
func (e *Engine) End() Snapshot {
	e.fillGaps()
	e.ended = true
	return e.Snapshot()
}

func (e *Engine) Rounds() int { return e.round }

func (e *Engine) Ended() bool { return e.ended }

// ReservedNames is empty; any name can play at a table.
func ReservedNames() []string { return nil }

func (e *Engine) fillGaps() {
	for _, p := range e.players {
		for len(e.scores[p.ID]) < e.round {
			e.scores[p.ID] = append(e.scores[p.ID], nil)
		}
	}
}
