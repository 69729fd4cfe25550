package sessionservice

import (
	"context"
	"fmt"
	"log/slog"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	tarokengine "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application"
	tableengine "github.com/Black-And-White-Club/tarok-bot/app/modules/table/application"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// Game is the scoring engine of one session. Exactly one of Tarok and Table
// is set, matching Mode.
type Game struct {
	Mode  sessiontypes.Mode
	Tarok *tarokengine.Engine
	Table *tableengine.Engine
}

// GameOptions tune the engines built by NewGame.
type GameOptions struct {
	StrictDuplicates bool
	Logger           *slog.Logger
}

// NewGame builds the engine for mode, resolving names through dir.
func NewGame(mode sessiontypes.Mode, dir sharedtypes.Directory, opts GameOptions) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch mode {
	case sessiontypes.ModeTarok:
		return &Game{Mode: mode, Tarok: tarokengine.New(dir,
			tarokengine.WithStrictDuplicates(opts.StrictDuplicates),
			tarokengine.WithLogger(logger),
		)}, nil
	case sessiontypes.ModeTable:
		return &Game{Mode: mode, Table: tableengine.New(dir, logger)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// ReservedNames lists the names players of mode may not register under.
func ReservedNames(mode sessiontypes.Mode) []string {
	if mode == sessiontypes.ModeTarok {
		return tarokengine.ReservedNames()
	}
	return tableengine.ReservedNames()
}

// PreparedRound is a scored round that has not been applied yet.
type PreparedRound struct {
	Index  int
	Deltas map[sharedtypes.PlayerID]int

	tarok *tarokengine.PreparedRound
	table *tableengine.PreparedRound
}

// Prepare parses and scores text without touching the game state.
func (g *Game) Prepare(ctx context.Context, text string) (*PreparedRound, error) {
	if g.Tarok != nil {
		p, err := g.Tarok.Prepare(ctx, text)
		if err != nil {
			return nil, err
		}
		return &PreparedRound{Index: p.Round, Deltas: p.Outcome.Deltas, tarok: p}, nil
	}

	p, err := g.Table.Prepare(ctx, text)
	if err != nil {
		return nil, err
	}
	deltas := make(map[sharedtypes.PlayerID]int, len(p.Players))
	for i, player := range p.Players {
		deltas[player.ID] = p.Scores[i]
	}
	return &PreparedRound{Index: p.Round, Deltas: deltas, table: p}, nil
}

// Apply commits p.
func (g *Game) Apply(ctx context.Context, p *PreparedRound) (sessiontypes.RoundOutcome, error) {
	out := sessiontypes.RoundOutcome{Mode: g.Mode, Round: p.Index}
	if g.Tarok != nil {
		res, err := g.Tarok.Apply(ctx, p.tarok)
		if err != nil {
			return sessiontypes.RoundOutcome{}, err
		}
		out.Tarok = &res
		return out, nil
	}
	res, err := g.Table.Apply(ctx, p.table)
	if err != nil {
		return sessiontypes.RoundOutcome{}, err
	}
	out.Table = &res
	return out, nil
}

// Submit prepares and applies text in one step.
func (g *Game) Submit(ctx context.Context, text string) (sessiontypes.RoundOutcome, error) {
	p, err := g.Prepare(ctx, text)
	if err != nil {
		return sessiontypes.RoundOutcome{}, err
	}
	return g.Apply(ctx, p)
}

// Report returns the interim view.
func (g *Game) Report() sessiontypes.Report {
	r := sessiontypes.Report{Mode: g.Mode, Rounds: g.Rounds()}
	if g.Tarok != nil {
		s := g.Tarok.Snapshot()
		r.Tarok = &s
	} else {
		s := g.Table.Snapshot()
		r.Table = &s
	}
	return r
}

// End gap-fills the game and returns the final view.
func (g *Game) End() sessiontypes.Report {
	r := sessiontypes.Report{Mode: g.Mode, Rounds: g.Rounds()}
	if g.Tarok != nil {
		s := g.Tarok.End()
		r.Tarok = &s
	} else {
		s := g.Table.End()
		r.Table = &s
	}
	return r
}

func (g *Game) Rounds() int {
	if g.Tarok != nil {
		return g.Tarok.Rounds()
	}
	return g.Table.Rounds()
}
