package sessionservice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Session Repo
// ------------------------

// FakeSessionRepo keeps sessions and rounds in memory unless a Func
// overrides the call.
type FakeSessionRepo struct {
	mu       sync.Mutex
	trace    []string
	sessions map[uuid.UUID]*sessiondb.Session
	rounds   map[uuid.UUID][]sessiondb.Round

	CreateSessionFunc    func(ctx context.Context, db bun.IDB, session *sessiondb.Session) error
	GetActiveSessionFunc func(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*sessiondb.Session, error)
	EndSessionFunc       func(ctx context.Context, db bun.IDB, sessionID uuid.UUID, state sessiontypes.State, endedAt time.Time, report *sessiontypes.Report) error
	AppendRoundFunc      func(ctx context.Context, db bun.IDB, round *sessiondb.Round) error
	ListRoundsFunc       func(ctx context.Context, db bun.IDB, sessionID uuid.UUID) ([]sessiondb.Round, error)
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		trace:    []string{},
		sessions: map[uuid.UUID]*sessiondb.Session{},
		rounds:   map[uuid.UUID][]sessiondb.Round{},
	}
}

func (f *FakeSessionRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSessionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// seed stores an active session with the given round log.
func (f *FakeSessionRepo) seed(chatID sharedtypes.ChatID, mode sessiontypes.Mode, texts ...string) *sessiondb.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &sessiondb.Session{ID: uuid.New(), ChatID: chatID, Mode: mode, State: sessiontypes.StateActive, StartedAt: time.Now().UTC()}
	f.sessions[s.ID] = s
	for i, text := range texts {
		f.rounds[s.ID] = append(f.rounds[s.ID], sessiondb.Round{SessionID: s.ID, RoundIndex: i, RawText: text})
	}
	return s
}

func (f *FakeSessionRepo) session(id uuid.UUID) *sessiondb.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id]
}

func (f *FakeSessionRepo) roundLog(id uuid.UUID) []sessiondb.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sessiondb.Round(nil), f.rounds[id]...)
}

func (f *FakeSessionRepo) CreateSession(ctx context.Context, db bun.IDB, session *sessiondb.Session) error {
	f.record("CreateSession")
	if f.CreateSessionFunc != nil {
		return f.CreateSessionFunc(ctx, db, session)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ChatID == session.ChatID && s.State == sessiontypes.StateActive {
			return sessiondb.ErrActiveSessionExists
		}
	}
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *FakeSessionRepo) GetActiveSession(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*sessiondb.Session, error) {
	f.record("GetActiveSession")
	if f.GetActiveSessionFunc != nil {
		return f.GetActiveSessionFunc(ctx, db, chatID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ChatID == chatID && s.State == sessiontypes.StateActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sessiondb.ErrNotFound
}

func (f *FakeSessionRepo) EndSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID, state sessiontypes.State, endedAt time.Time, report *sessiontypes.Report) error {
	f.record("EndSession:" + string(state))
	if f.EndSessionFunc != nil {
		return f.EndSessionFunc(ctx, db, sessionID, state, endedAt, report)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.State != sessiontypes.StateActive {
		return sessiondb.ErrNoRowsAffected
	}
	s.State = state
	s.EndedAt = &endedAt
	s.FinalReport = report
	return nil
}

func (f *FakeSessionRepo) AppendRound(ctx context.Context, db bun.IDB, round *sessiondb.Round) error {
	f.record("AppendRound")
	if f.AppendRoundFunc != nil {
		return f.AppendRoundFunc(ctx, db, round)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds[round.SessionID] = append(f.rounds[round.SessionID], *round)
	return nil
}

func (f *FakeSessionRepo) ListRounds(ctx context.Context, db bun.IDB, sessionID uuid.UUID) ([]sessiondb.Round, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx, db, sessionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]sessiondb.Round(nil), f.rounds[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoundIndex < out[j].RoundIndex })
	return out, nil
}

var _ sessiondb.Repository = (*FakeSessionRepo)(nil)

// ------------------------
// Fake Queue
// ------------------------

type FakeQueue struct {
	mu    sync.Mutex
	trace []string

	ScheduleIdleExpiryFunc func(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int, runAt time.Time) error
	CancelIdleExpiryFunc   func(ctx context.Context, sessionID uuid.UUID) error
}

func NewFakeQueue() *FakeQueue {
	return &FakeQueue{trace: []string{}}
}

func (f *FakeQueue) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeQueue) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeQueue) ScheduleIdleExpiry(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int, runAt time.Time) error {
	f.record(fmt.Sprintf("ScheduleIdleExpiry:%d", rounds))
	if f.ScheduleIdleExpiryFunc != nil {
		return f.ScheduleIdleExpiryFunc(ctx, chatID, sessionID, rounds, runAt)
	}
	return nil
}

func (f *FakeQueue) CancelIdleExpiry(ctx context.Context, sessionID uuid.UUID) error {
	f.record("CancelIdleExpiry")
	if f.CancelIdleExpiryFunc != nil {
		return f.CancelIdleExpiryFunc(ctx, sessionID)
	}
	return nil
}

func (f *FakeQueue) Start(ctx context.Context) error { return nil }
func (f *FakeQueue) Stop(ctx context.Context) error  { return nil }

var _ sessionqueue.QueueService = (*FakeQueue)(nil)

// ------------------------
// Fake Directory Provider
// ------------------------

// FakeDirectoryProvider gives every chat the same roster; ids are the
// lowercase names.
type FakeDirectoryProvider struct {
	mu    sync.Mutex
	names map[string]bool
}

func NewFakeDirectoryProvider(names ...string) *FakeDirectoryProvider {
	f := &FakeDirectoryProvider{names: map[string]bool{}}
	for _, n := range names {
		f.names[n] = true
	}
	return f
}

func (f *FakeDirectoryProvider) forget(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.names, name)
}

func (f *FakeDirectoryProvider) Directory(chatID sharedtypes.ChatID) sharedtypes.Directory {
	return fakeDirectory{f}
}

type fakeDirectory struct{ p *FakeDirectoryProvider }

func (d fakeDirectory) Resolve(ctx context.Context, name string) (sharedtypes.Player, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if !d.p.names[name] {
		return sharedtypes.Player{}, fmt.Errorf("%s: %w", name, sharedtypes.ErrPlayerNotFound)
	}
	return sharedtypes.Player{ID: sharedtypes.PlayerID(strings.ToLower(name)), Name: name}, nil
}

var _ DirectoryProvider = (*FakeDirectoryProvider)(nil)
