//go:build integration

package suite

import (
	"context"
	"testing"
	"time"

	playerdb "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/repositories"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := sessiondb.NewRepository(testDB)
	chat := sharedtypes.ChatID("chat-" + uuid.NewString())

	_, err := repo.GetActiveSession(ctx, nil, chat)
	require.ErrorIs(t, err, sessiondb.ErrNotFound)

	s := &sessiondb.Session{
		ID:        uuid.New(),
		ChatID:    chat,
		Mode:      sessiontypes.ModeTarok,
		State:     sessiontypes.StateActive,
		StartedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.CreateSession(ctx, nil, s))

	second := *s
	second.ID = uuid.New()
	require.ErrorIs(t, repo.CreateSession(ctx, nil, &second), sessiondb.ErrActiveSessionExists)

	got, err := repo.GetActiveSession(ctx, nil, chat)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, sessiontypes.ModeTarok, got.Mode)

	rounds := []sessiondb.Round{
		{SessionID: s.ID, RoundIndex: 0, RawText: "/r I3 ANA", Deltas: map[sharedtypes.PlayerID]int{"a": 10}},
		{SessionID: s.ID, RoundIndex: 1, RawText: "/r I1 ANA BOR", Deltas: map[sharedtypes.PlayerID]int{"a": 30, "b": 10}},
	}
	for i := len(rounds) - 1; i >= 0; i-- {
		r := rounds[i]
		require.NoError(t, repo.AppendRound(ctx, nil, &r))
	}
	dup := rounds[0]
	require.Error(t, repo.AppendRound(ctx, nil, &dup))

	listed, err := repo.ListRounds(ctx, nil, s.ID)
	require.NoError(t, err)
	texts := make([]string, len(listed))
	for i, r := range listed {
		texts[i] = r.RawText
	}
	if diff := cmp.Diff([]string{"/r I3 ANA", "/r I1 ANA BOR"}, texts); diff != "" {
		t.Errorf("round order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30, listed[1].Deltas["a"])

	report := &sessiontypes.Report{SessionID: s.ID, Mode: sessiontypes.ModeTarok, Rounds: 2}
	require.NoError(t, repo.EndSession(ctx, nil, s.ID, sessiontypes.StateEnded, time.Now().UTC(), report))
	require.ErrorIs(t, repo.EndSession(ctx, nil, s.ID, sessiontypes.StateEnded, time.Now().UTC(), report), sessiondb.ErrNoRowsAffected)

	_, err = repo.GetActiveSession(ctx, nil, chat)
	require.ErrorIs(t, err, sessiondb.ErrNotFound)

	var stored sessiondb.Session
	require.NoError(t, testDB.NewSelect().Model(&stored).Where("id = ?", s.ID).Scan(ctx))
	require.NotNil(t, stored.FinalReport)
	assert.Equal(t, 2, stored.FinalReport.Rounds)
	assert.NotNil(t, stored.EndedAt)

	second.ID = uuid.New()
	require.NoError(t, repo.CreateSession(ctx, nil, &second), "a new session may start after the old one ended")
}

func TestSessionRepository_Transaction(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := sessiondb.NewRepository(testDB)
	s := &sessiondb.Session{ID: uuid.New(), ChatID: "tx-chat", Mode: sessiontypes.ModeTable, State: sessiontypes.StateActive}
	require.NoError(t, repo.CreateSession(ctx, nil, s))

	tx, err := testDB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AppendRound(ctx, tx, &sessiondb.Round{SessionID: s.ID, RoundIndex: 0, RawText: "/t ana 1 bor -1"}))
	require.NoError(t, tx.Rollback())

	listed, err := repo.ListRounds(ctx, nil, s.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestPlayerRepository(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := playerdb.NewRepository(testDB)

	ana := &playerdb.Player{ChatID: "c1", Name: "ANA"}
	require.NoError(t, repo.CreatePlayer(ctx, nil, ana))
	assert.NotEqual(t, uuid.Nil, ana.ID)
	require.ErrorIs(t, repo.CreatePlayer(ctx, nil, &playerdb.Player{ChatID: "c1", Name: "ANA"}), playerdb.ErrPlayerExists)
	require.NoError(t, repo.CreatePlayer(ctx, nil, &playerdb.Player{ChatID: "c2", Name: "ANA"}))
	require.NoError(t, repo.CreatePlayer(ctx, nil, &playerdb.Player{ChatID: "c1", Name: "ČUK"}))

	got, err := repo.GetByName(ctx, nil, "c1", "ANA")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = repo.GetByName(ctx, nil, "c1", "BOR")
	require.ErrorIs(t, err, playerdb.ErrNotFound)
	require.ErrorIs(t, err, sharedtypes.ErrPlayerNotFound)

	listed, err := repo.ListPlayers(ctx, nil, "c1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
