package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when no active session exists for a chat.
	ErrNotFound = errors.New("session not found")

	// ErrNoRowsAffected is returned when an update matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrActiveSessionExists is returned when a chat already has an active session.
	ErrActiveSessionExists = errors.New("chat already has an active session")
)

const uniqueViolation = "23505"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new session repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// CreateSession inserts an active session.
func (r *Impl) CreateSession(ctx context.Context, db bun.IDB, session *Session) error {
	db = r.resolveDB(db)
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.State == "" {
		session.State = sessiontypes.StateActive
	}
	if _, err := db.NewInsert().Model(session).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return ErrActiveSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetActiveSession returns the active session of chatID.
func (r *Impl) GetActiveSession(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*Session, error) {
	db = r.resolveDB(db)
	session := new(Session)
	err := db.NewSelect().
		Model(session).
		Where("chat_id = ?", chatID).
		Where("state = ?", sessiontypes.StateActive).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

// EndSession moves an active session to state and stores its final report.
func (r *Impl) EndSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID, state sessiontypes.State, endedAt time.Time, report *sessiontypes.Report) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Session)(nil)).
		Set("state = ?", state).
		Set("ended_at = ?", endedAt).
		Set("final_report = ?", report).
		Where("id = ?", sessionID).
		Where("state = ?", sessiontypes.StateActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// AppendRound stores one committed round.
func (r *Impl) AppendRound(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append round %d: %w", round.RoundIndex, err)
	}
	return nil
}

// ListRounds returns the rounds of a session ordered by index.
func (r *Impl) ListRounds(ctx context.Context, db bun.IDB, sessionID uuid.UUID) ([]Round, error) {
	db = r.resolveDB(db)
	var rounds []Round
	err := db.NewSelect().
		Model(&rounds).
		Where("session_id = ?", sessionID).
		Order("round_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}
