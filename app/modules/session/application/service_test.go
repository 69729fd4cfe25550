package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	sessiondb "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability/metrics"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

const chat sharedtypes.ChatID = "chat-1"

var fixedNow = time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)

func newTestService(repo *FakeSessionRepo, queue *FakeQueue, players *FakeDirectoryProvider) *SessionService {
	if players == nil {
		players = NewFakeDirectoryProvider("ANA", "BOR", "CENE", "DAN")
	}
	var q sessionqueue.QueueService
	if queue != nil {
		q = queue
	}
	svc := NewSessionService(
		repo,
		q,
		players,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		Config{IdleTimeout: time.Hour},
	)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestStartSession(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		setup       func(*FakeSessionRepo)
		wantCode    sharedtypes.ErrorCode
		wantRunning bool
		wantMode    sessiontypes.Mode
		wantErr     bool
	}{
		{
			name:     "new tarok session",
			mode:     "",
			wantMode: sessiontypes.ModeTarok,
		},
		{
			name:     "new table session",
			mode:     "TABLE",
			wantMode: sessiontypes.ModeTable,
		},
		{
			name:     "invalid mode",
			mode:     "poker",
			wantCode: sessiontypes.CodeInvalidMode,
		},
		{
			name: "already running restores and reports",
			mode: "tarok",
			setup: func(r *FakeSessionRepo) {
				r.seed(chat, sessiontypes.ModeTarok, "/r I3 ANA")
			},
			wantRunning: true,
			wantMode:    sessiontypes.ModeTarok,
		},
		{
			name: "other mode running",
			mode: "table",
			setup: func(r *FakeSessionRepo) {
				r.seed(chat, sessiontypes.ModeTarok)
			},
			wantCode: sessiontypes.CodeModeMismatch,
		},
		{
			name: "lookup error",
			mode: "tarok",
			setup: func(r *FakeSessionRepo) {
				r.GetActiveSessionFunc = func(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*sessiondb.Session, error) {
					return nil, errors.New("connection refused")
				}
			},
			wantErr: true,
		},
		{
			name: "create error",
			mode: "tarok",
			setup: func(r *FakeSessionRepo) {
				r.CreateSessionFunc = func(ctx context.Context, db bun.IDB, session *sessiondb.Session) error {
					return errors.New("disk full")
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeSessionRepo()
			if tt.setup != nil {
				tt.setup(repo)
			}
			svc := newTestService(repo, NewFakeQueue(), nil)

			res, err := svc.StartSession(context.Background(), chat, tt.mode)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, svc.Registry().Active())
				return
			}
			require.NoError(t, err)

			if tt.wantCode != "" {
				require.True(t, res.IsFailure())
				assert.Equal(t, tt.wantCode, (*res.Failure).Code)
				return
			}
			require.True(t, res.IsSuccess())
			info := *res.Success
			assert.Equal(t, tt.wantMode, info.Mode)
			assert.Equal(t, tt.wantRunning, info.AlreadyRunning)
			assert.Equal(t, sessiontypes.StateActive, info.State)
			assert.Equal(t, 1, svc.Registry().Active())
		})
	}
}

func TestStartSession_CreateRace(t *testing.T) {
	repo := NewFakeSessionRepo()
	other := &sessiondb.Session{ID: uuid.New(), ChatID: chat, Mode: sessiontypes.ModeTarok, State: sessiontypes.StateActive}
	lookups := 0
	repo.GetActiveSessionFunc = func(ctx context.Context, db bun.IDB, chatID sharedtypes.ChatID) (*sessiondb.Session, error) {
		lookups++
		if lookups == 1 {
			return nil, sessiondb.ErrNotFound
		}
		return other, nil
	}
	repo.CreateSessionFunc = func(ctx context.Context, db bun.IDB, session *sessiondb.Session) error {
		return sessiondb.ErrActiveSessionExists
	}
	svc := newTestService(repo, NewFakeQueue(), nil)

	res, err := svc.StartSession(context.Background(), chat, "tarok")
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, other.ID, (*res.Success).ID)
	assert.True(t, (*res.Success).AlreadyRunning)
}

func TestSubmitRound(t *testing.T) {
	ctx := context.Background()

	t.Run("commits, logs and schedules expiry", func(t *testing.T) {
		repo, queue := NewFakeSessionRepo(), NewFakeQueue()
		svc := newTestService(repo, queue, nil)
		start, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)
		id := (*start.Success).ID

		var runAt time.Time
		queue.ScheduleIdleExpiryFunc = func(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int, at time.Time) error {
			runAt = at
			return nil
		}

		res, err := svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		outcome := *res.Success
		assert.Equal(t, id, outcome.SessionID)
		assert.Equal(t, 0, outcome.Round)
		assert.Equal(t, map[sharedtypes.PlayerID]int{"ana": 10}, outcome.Deltas())

		log := repo.roundLog(id)
		require.Len(t, log, 1)
		assert.Equal(t, "/r I3 ANA", log[0].RawText)
		assert.Equal(t, map[sharedtypes.PlayerID]int{"ana": 10}, log[0].Deltas)

		assert.Equal(t, []string{"ScheduleIdleExpiry:1"}, queue.Trace())
		assert.Equal(t, fixedNow.Add(time.Hour), runAt)
	})

	t.Run("no session", func(t *testing.T) {
		svc := newTestService(NewFakeSessionRepo(), NewFakeQueue(), nil)
		res, err := svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeNoSession, (*res.Failure).Code)
		assert.Equal(t, 0, svc.Registry().Active())
	})

	t.Run("rejected round changes nothing", func(t *testing.T) {
		repo, queue := NewFakeSessionRepo(), NewFakeQueue()
		svc := newTestService(repo, queue, nil)
		_, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)

		res, err := svc.SubmitRound(ctx, chat, "/r I3 ZED")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sharedtypes.CodeUnknownPlayer, (*res.Failure).Code)
		assert.Equal(t, "ZED", (*res.Failure).Token)

		assert.NotContains(t, repo.Trace(), "AppendRound")
		assert.Empty(t, queue.Trace())

		report, err := svc.GetReport(ctx, chat)
		require.NoError(t, err)
		assert.Equal(t, 0, (*report.Success).Rounds)
	})

	t.Run("storage failure leaves the game untouched", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		svc := newTestService(repo, NewFakeQueue(), nil)
		_, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)

		repo.AppendRoundFunc = func(ctx context.Context, db bun.IDB, round *sessiondb.Round) error {
			return errors.New("connection reset")
		}
		_, err = svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.Error(t, err)

		report, err := svc.GetReport(ctx, chat)
		require.NoError(t, err)
		assert.Equal(t, 0, (*report.Success).Rounds)
	})

	t.Run("restores missing session before scoring", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		seeded := repo.seed(chat, sessiontypes.ModeTarok, "/r I3 ANA")
		svc := newTestService(repo, NewFakeQueue(), nil)

		res, err := svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		outcome := *res.Success
		assert.Equal(t, seeded.ID, outcome.SessionID)
		assert.Equal(t, 1, outcome.Round)
		assert.True(t, outcome.Tarok.Doubled)
		assert.Equal(t, 20, outcome.Deltas()["ana"])
		assert.Len(t, repo.roundLog(seeded.ID), 2)
	})

	t.Run("table mode", func(t *testing.T) {
		svc := newTestService(NewFakeSessionRepo(), nil, nil)
		_, err := svc.StartSession(ctx, chat, "table")
		require.NoError(t, err)

		res, err := svc.SubmitRound(ctx, chat, "/t ana 10 bor -10")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, map[sharedtypes.PlayerID]int{"ana": 10, "bor": -10}, (*res.Success).Deltas())

		res, err = svc.SubmitRound(ctx, chat, "/t ana 10 bor")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sharedtypes.CodeMalformedRound, (*res.Failure).Code)
	})

	t.Run("schedule failure does not fail the round", func(t *testing.T) {
		queue := NewFakeQueue()
		queue.ScheduleIdleExpiryFunc = func(context.Context, sharedtypes.ChatID, uuid.UUID, int, time.Time) error {
			return errors.New("queue down")
		}
		svc := newTestService(NewFakeSessionRepo(), queue, nil)
		_, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)

		res, err := svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("replays the round log", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		seeded := repo.seed(chat, sessiontypes.ModeTarok, "/r I3 ANA", "/r I1 ANA BOR")
		svc := newTestService(repo, NewFakeQueue(), nil)

		res, err := svc.Restore(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, seeded.ID, (*res.Success).ID)
		assert.Equal(t, 2, (*res.Success).Rounds)
		assert.Equal(t, 1, svc.Registry().Active())
	})

	t.Run("unreplayable log abandons the session", func(t *testing.T) {
		repo, queue := NewFakeSessionRepo(), NewFakeQueue()
		players := NewFakeDirectoryProvider("ANA", "BOR")
		seeded := repo.seed(chat, sessiontypes.ModeTarok, "/r I3 ANA", "/r I3 BOR")
		players.forget("BOR")
		svc := newTestService(repo, queue, players)

		res, err := svc.Restore(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeRestoreFailed, (*res.Failure).Code)
		assert.Equal(t, sessiontypes.StateAbandoned, repo.session(seeded.ID).State)
		assert.Equal(t, []string{"CancelIdleExpiry"}, queue.Trace())
		assert.Equal(t, 0, svc.Registry().Active())

		// The chat is free for a new session afterwards.
		start, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)
		require.True(t, start.IsSuccess())
		assert.NotEqual(t, seeded.ID, (*start.Success).ID)
	})

	t.Run("gap in the round log", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		seeded := repo.seed(chat, sessiontypes.ModeTable)
		repo.ListRoundsFunc = func(ctx context.Context, db bun.IDB, sessionID uuid.UUID) ([]sessiondb.Round, error) {
			return []sessiondb.Round{{SessionID: seeded.ID, RoundIndex: 1, RawText: "/t ANA 1"}}, nil
		}
		svc := newTestService(repo, nil, nil)

		res, err := svc.Restore(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeRestoreFailed, (*res.Failure).Code)
	})

	t.Run("list error is retried", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		seeded := repo.seed(chat, sessiontypes.ModeTarok)
		repo.ListRoundsFunc = func(context.Context, bun.IDB, uuid.UUID) ([]sessiondb.Round, error) {
			return nil, errors.New("timeout")
		}
		svc := newTestService(repo, nil, nil)

		_, err := svc.Restore(ctx, chat)
		require.Error(t, err)
		assert.Equal(t, sessiontypes.StateActive, repo.session(seeded.ID).State)
	})

	t.Run("no session", func(t *testing.T) {
		svc := newTestService(NewFakeSessionRepo(), nil, nil)
		res, err := svc.Restore(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeNoSession, (*res.Failure).Code)
	})
}

func TestGetReport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewFakeSessionRepo(), nil, nil)
	start, err := svc.StartSession(ctx, chat, "tarok")
	require.NoError(t, err)
	_, err = svc.SubmitRound(ctx, chat, "/r I1 ANA BOR")
	require.NoError(t, err)

	res, err := svc.GetReport(ctx, chat)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	report := *res.Success
	assert.Equal(t, (*start.Success).ID, report.SessionID)
	assert.Equal(t, 1, report.Rounds)
	assert.Equal(t, 30, report.Stats()["ana"].Sum)

	// Interim reports keep the session running.
	next, err := svc.SubmitRound(ctx, chat, "/r I3 CENE")
	require.NoError(t, err)
	assert.True(t, next.IsSuccess())
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("ends and renders", func(t *testing.T) {
		repo, queue := NewFakeSessionRepo(), NewFakeQueue()
		svc := newTestService(repo, queue, nil)
		start, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)
		id := (*start.Success).ID
		_, err = svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)

		res, err := svc.EndSession(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		end := *res.Success
		assert.Equal(t, sessiontypes.StateEnded, end.Session.State)
		assert.Equal(t, 1, end.Report.Rounds)
		assert.Equal(t, "2026_10_14_18_30_00_UTC_tarok.html", end.FileName)
		assert.Contains(t, end.HTML, "<th>ANA</th>")

		stored := repo.session(id)
		assert.Equal(t, sessiontypes.StateEnded, stored.State)
		require.NotNil(t, stored.FinalReport)
		assert.Equal(t, id, stored.FinalReport.SessionID)
		assert.Equal(t, []string{"ScheduleIdleExpiry:1", "CancelIdleExpiry"}, queue.Trace())
		assert.Equal(t, 0, svc.Registry().Active())

		after, err := svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		require.True(t, after.IsFailure())
		assert.Equal(t, sessiontypes.CodeNoSession, (*after.Failure).Code)
	})

	t.Run("no session", func(t *testing.T) {
		svc := newTestService(NewFakeSessionRepo(), nil, nil)
		res, err := svc.EndSession(ctx, chat)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeNoSession, (*res.Failure).Code)
	})

	t.Run("storage failure drops the session from memory", func(t *testing.T) {
		repo := NewFakeSessionRepo()
		svc := newTestService(repo, nil, nil)
		_, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)

		repo.EndSessionFunc = func(context.Context, bun.IDB, uuid.UUID, sessiontypes.State, time.Time, *sessiontypes.Report) error {
			return errors.New("deadlock")
		}
		_, err = svc.EndSession(ctx, chat)
		require.Error(t, err)
		assert.Equal(t, 0, svc.Registry().Active())

		// Still active in storage, so the retry restores and ends it.
		repo.EndSessionFunc = nil
		res, err := svc.EndSession(ctx, chat)
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
	})
}

func TestExpireIdle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*SessionService, *FakeSessionRepo, *FakeQueue, uuid.UUID) {
		repo, queue := NewFakeSessionRepo(), NewFakeQueue()
		svc := newTestService(repo, queue, nil)
		start, err := svc.StartSession(ctx, chat, "tarok")
		require.NoError(t, err)
		_, err = svc.SubmitRound(ctx, chat, "/r I3 ANA")
		require.NoError(t, err)
		return svc, repo, queue, (*start.Success).ID
	}

	t.Run("expires an idle session", func(t *testing.T) {
		svc, repo, queue, id := setup(t)
		res, err := svc.ExpireIdle(ctx, chat, id, 1)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, sessiontypes.StateExpired, (*res.Success).Session.State)
		assert.Equal(t, sessiontypes.StateExpired, repo.session(id).State)
		assert.NotContains(t, queue.Trace(), "CancelIdleExpiry")
	})

	t.Run("newer rounds keep the session", func(t *testing.T) {
		svc, repo, _, id := setup(t)
		res, err := svc.ExpireIdle(ctx, chat, id, 0)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeSessionChanged, (*res.Failure).Code)
		assert.Equal(t, sessiontypes.StateActive, repo.session(id).State)
	})

	t.Run("other session", func(t *testing.T) {
		svc, _, _, _ := setup(t)
		res, err := svc.ExpireIdle(ctx, chat, uuid.New(), 1)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeSessionChanged, (*res.Failure).Code)
	})

	t.Run("already ended", func(t *testing.T) {
		svc, _, _, id := setup(t)
		_, err := svc.EndSession(ctx, chat)
		require.NoError(t, err)
		res, err := svc.ExpireIdle(ctx, chat, id, 1)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, sessiontypes.CodeNoSession, (*res.Failure).Code)
	})
}

func TestPanicRecovered(t *testing.T) {
	repo := NewFakeSessionRepo()
	repo.GetActiveSessionFunc = func(context.Context, bun.IDB, sharedtypes.ChatID) (*sessiondb.Session, error) {
		panic("boom")
	}
	svc := newTestService(repo, nil, nil)

	res, err := svc.GetReport(context.Background(), chat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in GetReport")
	assert.False(t, res.IsSuccess())

	// The entry lock was released by the deferred release.
	repo.GetActiveSessionFunc = nil
	res, err = svc.GetReport(context.Background(), chat)
	require.NoError(t, err)
	assert.True(t, res.IsFailure())
}

func TestConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	repo := NewFakeSessionRepo()
	svc := newTestService(repo, NewFakeQueue(), nil)

	chats := []sharedtypes.ChatID{"chat-a", "chat-b", "chat-c"}
	ids := map[sharedtypes.ChatID]uuid.UUID{}
	for _, c := range chats {
		res, err := svc.StartSession(ctx, c, "table")
		require.NoError(t, err)
		ids[c] = (*res.Success).ID
	}

	const perChat = 25
	var wg sync.WaitGroup
	for _, c := range chats {
		for i := 0; i < perChat; i++ {
			wg.Add(1)
			go func(c sharedtypes.ChatID, i int) {
				defer wg.Done()
				res, err := svc.SubmitRound(ctx, c, fmt.Sprintf("/t ana %d bor %d", i, -i))
				assert.NoError(t, err)
				assert.True(t, res.IsSuccess())
			}(c, i)
		}
	}
	wg.Wait()

	for _, c := range chats {
		log := repo.roundLog(ids[c])
		require.Len(t, log, perChat)
		seen := map[int]bool{}
		for _, r := range log {
			seen[r.RoundIndex] = true
		}
		assert.Len(t, seen, perChat, "round indexes must be unique in %s", c)

		report, err := svc.GetReport(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, perChat, (*report.Success).Rounds)
		assert.Equal(t, 0, (*report.Success).Stats()["ana"].Sum+(*report.Success).Stats()["bor"].Sum)
	}
	assert.Equal(t, len(chats), svc.Registry().Active())
}

func TestRegistryDropsIdleEntries(t *testing.T) {
	r := NewRegistry()
	e := r.acquire(chat)
	r.release(chat, e)
	assert.Empty(t, r.entries)

	e = r.acquire(chat)
	assert.Equal(t, 1, r.attach(e, &activeSession{}))
	r.release(chat, e)
	assert.Len(t, r.entries, 1)

	e = r.acquire(chat)
	assert.Equal(t, 0, r.detach(e))
	r.release(chat, e)
	assert.Empty(t, r.entries)
}
