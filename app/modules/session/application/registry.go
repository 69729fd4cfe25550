package sessionservice

import (
	"sync"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// activeSession is a session held in memory.
type activeSession struct {
	id        uuid.UUID
	chatID    sharedtypes.ChatID
	mode      sessiontypes.Mode
	startedAt time.Time
	game      *Game
}

func (a *activeSession) info(state sessiontypes.State) sessiontypes.SessionInfo {
	return sessiontypes.SessionInfo{
		ID:        a.id,
		ChatID:    a.chatID,
		Mode:      a.mode,
		State:     state,
		StartedAt: a.startedAt,
		Rounds:    a.game.Rounds(),
	}
}

// entry guards the session of one chat. session is only touched with mu
// held; refs is guarded by the registry lock.
type entry struct {
	mu      sync.Mutex
	refs    int
	session *activeSession
}

// Registry holds the in-memory sessions keyed by chat. Operations on one chat
// are serialized by its entry lock while different chats proceed in parallel.
type Registry struct {
	mu      sync.Mutex
	entries map[sharedtypes.ChatID]*entry
	active  int
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[sharedtypes.ChatID]*entry)}
}

// acquire returns the locked entry of chatID, creating it if needed. Every
// acquire must be paired with release.
func (r *Registry) acquire(chatID sharedtypes.ChatID) *entry {
	r.mu.Lock()
	e, ok := r.entries[chatID]
	if !ok {
		e = &entry{}
		r.entries[chatID] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()
	return e
}

// release unlocks e and drops it once nobody references an empty entry.
func (r *Registry) release(chatID sharedtypes.ChatID, e *entry) {
	r.mu.Lock()
	e.refs--
	if e.refs == 0 && e.session == nil {
		delete(r.entries, chatID)
	}
	r.mu.Unlock()
	e.mu.Unlock()
}

// attach stores s in the locked entry e and returns the active count.
func (r *Registry) attach(e *entry, s *activeSession) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.session == nil {
		r.active++
	}
	e.session = s
	return r.active
}

// detach clears the locked entry e and returns the active count.
func (r *Registry) detach(e *entry) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.session != nil {
		r.active--
	}
	e.session = nil
	return r.active
}

// Active is the number of sessions held in memory.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
