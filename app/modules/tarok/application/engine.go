// Package tarokengine runs Tarok rounds for one session: tokenize, resolve,
// score and commit into the ledgers as a single atomic step.
package tarokengine

import (
	"context"
	"fmt"
	"log/slog"

	tarokledger "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application/ledger"
	tarokparsers "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application/parsers"
	tarokrules "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application/rules"
	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// reservedNames may not be registered as player names.
var reservedNames = []string{"3", "2", "1", "S3", "S2", "S1"}

// ReservedNames returns the names a player may not register.
func ReservedNames() []string {
	return append([]string(nil), reservedNames...)
}

// RoundState tracks a submission through the engine.
type RoundState int

const (
	StatePending RoundState = iota
	StateParsed
	StateScored
	StateCommitted
	StateRejected
)

func (s RoundState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateParsed:
		return "parsed"
	case StateScored:
		return "scored"
	case StateCommitted:
		return "committed"
	default:
		return "rejected"
	}
}

// Engine owns one session's ledgers. It is not safe for concurrent use;
// callers serialize submissions per session.
type Engine struct {
	ledger   *tarokledger.Ledger
	dir      tarokparsers.Directory
	games    tarokparsers.GameResolver
	logger   *slog.Logger
	poisoned error
	ended    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictDuplicates rejects a second game variant or diff instead of
// letting it fall through to the other token categories.
func WithStrictDuplicates(strict bool) Option {
	return func(e *Engine) { e.games.Strict = strict }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New returns an engine resolving names through dir.
func New(dir tarokparsers.Directory, opts ...Option) *Engine {
	e := &Engine{
		ledger: tarokledger.New(),
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PreparedRound is a scored round that has not touched the ledgers yet.
type PreparedRound struct {
	Text    string
	Round   int
	State   RoundState
	Players []sharedtypes.Player
	Game    taroktypes.RoundGameTokens
	Outcome tarokrules.Outcome

	entry tarokledger.Entry
}

// RoundResult describes a committed round.
type RoundResult struct {
	Round    int                          `json:"round"`
	Variant  taroktypes.GameVariant       `json:"variant"`
	Players  []sharedtypes.Player         `json:"players"`
	Deltas   map[sharedtypes.PlayerID]int `json:"deltas"`
	Doubled  bool                         `json:"doubled"`
	Consumer sharedtypes.PlayerID         `json:"consumer,omitempty"`
	Granted  bool                         `json:"granted"`
	Admitted []sharedtypes.Player         `json:"admitted,omitempty"`
}

// Prepare parses and scores text against the current state. All directory
// lookups happen here; nothing is mutated.
func (e *Engine) Prepare(ctx context.Context, text string) (*PreparedRound, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}

	p := &PreparedRound{Text: text, Round: e.ledger.Rounds(), State: StatePending}

	rt, err := tarokparsers.Tokenize(text)
	if err != nil {
		return e.reject(ctx, p, err)
	}
	game, err := e.games.Resolve(rt.Game)
	if err != nil {
		return e.reject(ctx, p, err)
	}
	resolved, err := tarokparsers.ResolvePlayers(ctx, rt.Groups, e.dir)
	if err != nil {
		return e.reject(ctx, p, err)
	}
	p.State = StateParsed
	p.Game = game
	p.Players = resolved.Order

	outcome, err := tarokrules.Evaluate(tarokrules.RoundInput{
		Game:    game,
		Players: resolved.Order,
		Tokens:  resolved.Tokens,
	}, e.ledger)
	if err != nil {
		return e.reject(ctx, p, err)
	}
	p.State = StateScored
	p.Outcome = outcome

	entry := tarokledger.Entry{
		Round:    p.Round,
		Deltas:   outcome.Deltas,
		Tokens:   outcome.Tokens,
		Consumer: outcome.Consumer,
		Grant:    outcome.Grant,
		Game:     game,
	}
	for _, pl := range resolved.Order {
		if !e.ledger.Knows(pl.ID) {
			entry.Admit = append(entry.Admit, pl)
		}
	}
	if err := e.ledger.Validate(entry); err != nil {
		p.State = StateRejected
		return nil, e.poison(ctx, err)
	}
	p.entry = entry
	return p, nil
}

// Apply commits a round returned by Prepare.
func (e *Engine) Apply(ctx context.Context, p *PreparedRound) (RoundResult, error) {
	if err := e.usable(); err != nil {
		return RoundResult{}, err
	}
	if p == nil || p.State != StateScored {
		return RoundResult{}, fmt.Errorf("round is not ready to commit")
	}
	if p.Round != e.ledger.Rounds() {
		return RoundResult{}, fmt.Errorf("%w: prepared for round %d, engine at %d", ErrStaleRound, p.Round, e.ledger.Rounds())
	}

	if err := e.ledger.Commit(p.entry); err != nil {
		p.State = StateRejected
		return RoundResult{}, e.poison(ctx, err)
	}
	p.State = StateCommitted

	e.logger.DebugContext(ctx, "Round committed",
		attr.ExtractCorrelationID(ctx),
		attr.Int("round", p.Round),
		attr.String("variant", p.Outcome.Variant.String()),
		attr.Bool("doubled", p.Outcome.Doubled),
	)

	return RoundResult{
		Round:    p.Round,
		Variant:  p.Outcome.Variant,
		Players:  p.Players,
		Deltas:   p.Outcome.Deltas,
		Doubled:  p.Outcome.Doubled,
		Consumer: p.Outcome.Consumer,
		Granted:  p.Outcome.Grant,
		Admitted: p.entry.Admit,
	}, nil
}

// SubmitRound prepares and commits text in one step.
func (e *Engine) SubmitRound(ctx context.Context, text string) (RoundResult, error) {
	p, err := e.Prepare(ctx, text)
	if err != nil {
		return RoundResult{}, err
	}
	return e.Apply(ctx, p)
}

// Snapshot returns the interim report view.
func (e *Engine) Snapshot() tarokledger.Snapshot {
	return e.ledger.Snapshot()
}

// End gap-fills the ledgers and returns the final report view. Calling it
// again returns an identical snapshot; the round counter never moves.
func (e *Engine) End() tarokledger.Snapshot {
	e.ledger.FillGaps()
	e.ended = true
	return e.ledger.Snapshot()
}

// Rounds is the number of committed rounds.
func (e *Engine) Rounds() int { return e.ledger.Rounds() }

// Poisoned reports whether a fatal ledger error stopped the engine.
func (e *Engine) Poisoned() bool { return e.poisoned != nil }

// Ended reports whether End was called.
func (e *Engine) Ended() bool { return e.ended }

func (e *Engine) usable() error {
	if e.poisoned != nil {
		return sharedtypes.NewRoundError(sharedtypes.ErrSessionPoisoned, "", "%v", e.poisoned)
	}
	if e.ended {
		return ErrEnded
	}
	return nil
}

func (e *Engine) reject(ctx context.Context, p *PreparedRound, err error) (*PreparedRound, error) {
	p.State = StateRejected
	e.logger.DebugContext(ctx, "Round rejected",
		attr.ExtractCorrelationID(ctx),
		attr.Int("round", p.Round),
		attr.String("code", string(sharedtypes.CodeOf(err))),
		attr.Error(err),
	)
	return nil, err
}

func (e *Engine) poison(ctx context.Context, err error) error {
	e.poisoned = err
	e.logger.ErrorContext(ctx, "Ledger invariant violated, engine stopped",
		attr.ExtractCorrelationID(ctx),
		attr.Int("round", e.ledger.Rounds()),
		attr.Error(err),
	)
	return err
}
