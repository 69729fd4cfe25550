// Package tarokledger holds the per-session score, attribute and radlc
// histories. Every known player's histories have one slot per committed
// round; players that joined late or sat a round out have empty slots.
package tarokledger

import (
	"fmt"

	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// Entry is one scored round ready to be committed.
type Entry struct {
	// Round must equal the number of rounds already committed.
	Round int
	// Admit lists players seen for the first time in this round.
	Admit  []sharedtypes.Player
	Deltas map[sharedtypes.PlayerID]int
	Tokens taroktypes.RoundPlayerTokens
	// Consumer spends the front available radlc, if set.
	Consumer sharedtypes.PlayerID
	Grant    bool
	Game     taroktypes.RoundGameTokens
}

// Ledger is owned by exactly one engine and is not safe for concurrent use.
type Ledger struct {
	players    []sharedtypes.Player
	scores     map[sharedtypes.PlayerID][]*int
	attributes map[sharedtypes.PlayerID][][]taroktypes.PlayerToken
	resources  map[sharedtypes.PlayerID][]taroktypes.ResourceToken
	games      []taroktypes.RoundGameTokens
	round      int
}

func New() *Ledger {
	return &Ledger{
		scores:     make(map[sharedtypes.PlayerID][]*int),
		attributes: make(map[sharedtypes.PlayerID][][]taroktypes.PlayerToken),
		resources:  make(map[sharedtypes.PlayerID][]taroktypes.ResourceToken),
	}
}

// Rounds is the number of committed rounds.
func (l *Ledger) Rounds() int { return l.round }

// Players returns the roster in join order.
func (l *Ledger) Players() []sharedtypes.Player {
	return append([]sharedtypes.Player(nil), l.players...)
}

// Knows reports whether id has ledger entries.
func (l *Ledger) Knows(id sharedtypes.PlayerID) bool {
	_, ok := l.scores[id]
	return ok
}

// HasAvailable reports whether id holds an unused radlc.
func (l *Ledger) HasAvailable(id sharedtypes.PlayerID) bool {
	return frontAvailable(l.resources[id]) >= 0
}

// Admit registers players that have no ledger entries yet, with histories
// gap-filled to round. Known players are skipped. It returns the players
// actually admitted.
func (l *Ledger) Admit(players []sharedtypes.Player, round int) []sharedtypes.Player {
	var admitted []sharedtypes.Player
	for _, p := range players {
		if l.Knows(p.ID) {
			continue
		}
		l.players = append(l.players, p)
		l.scores[p.ID] = make([]*int, 0, round+1)
		l.attributes[p.ID] = make([][]taroktypes.PlayerToken, 0, round+1)
		l.resources[p.ID] = make([]taroktypes.ResourceToken, 0, round+1)
		l.fill(p.ID, round)
		admitted = append(admitted, p)
	}
	return admitted
}

// FillGaps pads every known player's histories to the round count.
func (l *Ledger) FillGaps() {
	for _, p := range l.players {
		l.fill(p.ID, l.round)
	}
}

func (l *Ledger) fill(id sharedtypes.PlayerID, round int) {
	for len(l.scores[id]) < round {
		l.scores[id] = append(l.scores[id], nil)
	}
	for len(l.attributes[id]) < round {
		l.attributes[id] = append(l.attributes[id], nil)
	}
	for len(l.resources[id]) < round {
		l.resources[id] = append(l.resources[id], taroktypes.ResourceNone)
	}
}

// Validate checks e against the current state without mutating anything.
// Any failure wraps sharedtypes.ErrLedgerInvariantViolation.
func (l *Ledger) Validate(e Entry) error {
	if e.Round != l.round {
		return violation("entry is for round %d but ledger is at round %d", e.Round, l.round)
	}

	admitted := make(map[sharedtypes.PlayerID]bool, len(e.Admit))
	for _, p := range e.Admit {
		if l.Knows(p.ID) || admitted[p.ID] {
			return violation("player %s admitted twice", p.Name)
		}
		admitted[p.ID] = true
	}
	known := func(id sharedtypes.PlayerID) bool { return l.Knows(id) || admitted[id] }

	for id := range e.Deltas {
		if !known(id) {
			return violation("player %s has a delta but no ledger entry", id)
		}
	}
	for id := range e.Tokens {
		if !known(id) {
			return violation("player %s has tokens but no ledger entry", id)
		}
		if _, ok := e.Deltas[id]; !ok {
			return violation("player %s has tokens but no delta", id)
		}
	}

	if e.Consumer != "" {
		if !l.Knows(e.Consumer) {
			return violation("consumer %s has no radlc ledger", e.Consumer)
		}
		if !l.HasAvailable(e.Consumer) {
			return violation("consumer %s has no available radlc", e.Consumer)
		}
	}

	for _, p := range l.players {
		if n := len(l.scores[p.ID]); n > l.round {
			return violation("player %s has %d score slots for %d rounds", p.Name, n, l.round)
		}
		if len(l.attributes[p.ID]) > l.round || len(l.resources[p.ID]) > l.round {
			return violation("player %s has histories longer than %d rounds", p.Name, l.round)
		}
	}
	return nil
}

// Commit validates e and then applies it. A failed validation leaves the
// ledger untouched.
func (l *Ledger) Commit(e Entry) error {
	if err := l.Validate(e); err != nil {
		return err
	}

	l.Admit(e.Admit, l.round)
	l.FillGaps()

	for _, p := range l.players {
		d, played := e.Deltas[p.ID]
		if !played {
			l.scores[p.ID] = append(l.scores[p.ID], nil)
			l.attributes[p.ID] = append(l.attributes[p.ID], nil)
			continue
		}
		l.scores[p.ID] = append(l.scores[p.ID], &d)
		l.attributes[p.ID] = append(l.attributes[p.ID], copyTokens(e.Tokens[p.ID]))
	}

	if e.Consumer != "" {
		slots := l.resources[e.Consumer]
		slots[frontAvailable(slots)] = taroktypes.ResourceUsed
	}

	grant := taroktypes.ResourceNone
	if e.Grant {
		grant = taroktypes.ResourceAvailable
	}
	for _, p := range l.players {
		l.resources[p.ID] = append(l.resources[p.ID], grant)
	}

	l.games = append(l.games, append(taroktypes.RoundGameTokens(nil), e.Game...))
	l.round++
	return nil
}

func frontAvailable(slots []taroktypes.ResourceToken) int {
	for i, s := range slots {
		if s == taroktypes.ResourceAvailable {
			return i
		}
	}
	return -1
}

// copyTokens never returns nil so a played round with no tokens stays
// distinguishable from a round the player sat out.
func copyTokens(in []taroktypes.PlayerToken) []taroktypes.PlayerToken {
	return append(make([]taroktypes.PlayerToken, 0, len(in)), in...)
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sharedtypes.ErrLedgerInvariantViolation, fmt.Sprintf(format, args...))
}
