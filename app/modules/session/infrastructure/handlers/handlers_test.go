package sessionhandlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessionevents "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/events"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	tarokengine "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/application"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const chat sharedtypes.ChatID = "chat-1"

func newHandlers(svc *FakeSessionService) Handlers {
	return NewSessionHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func failure(code sharedtypes.ErrorCode) *sessiontypes.Failure {
	return &sessiontypes.Failure{Code: code, Message: "nope", Token: "X"}
}

func TestHandleStartSession(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name      string
		setup     func(*FakeSessionService)
		payload   *sessionevents.SessionStartRequestedPayloadV1
		wantTopic string
		wantErr   bool
	}{
		{
			name: "started",
			setup: func(f *FakeSessionService) {
				f.StartSessionFunc = func(ctx context.Context, chatID sharedtypes.ChatID, mode string) (sessionservice.StartResult, error) {
					return results.SuccessResult[*sessiontypes.SessionInfo, *sessiontypes.Failure](&sessiontypes.SessionInfo{ID: id, ChatID: chatID, Mode: sessiontypes.ModeTarok}), nil
				}
			},
			payload:   &sessionevents.SessionStartRequestedPayloadV1{ChatID: chat},
			wantTopic: sessionevents.SessionStartedV1,
		},
		{
			name: "mode mismatch",
			setup: func(f *FakeSessionService) {
				f.StartSessionFunc = func(ctx context.Context, chatID sharedtypes.ChatID, mode string) (sessionservice.StartResult, error) {
					return results.FailureResult[*sessiontypes.SessionInfo](failure(sessiontypes.CodeModeMismatch)), nil
				}
			},
			payload:   &sessionevents.SessionStartRequestedPayloadV1{ChatID: chat, Mode: "table"},
			wantTopic: sessionevents.SessionStartFailedV1,
		},
		{
			name: "service error",
			setup: func(f *FakeSessionService) {
				f.StartSessionFunc = func(ctx context.Context, chatID sharedtypes.ChatID, mode string) (sessionservice.StartResult, error) {
					return sessionservice.StartResult{}, errors.New("db down")
				}
			},
			payload: &sessionevents.SessionStartRequestedPayloadV1{ChatID: chat},
			wantErr: true,
		},
		{
			name:    "nil payload",
			setup:   func(f *FakeSessionService) {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeSessionService()
			tt.setup(svc)

			res, err := newHandlers(svc).HandleStartSession(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, tt.wantTopic, res[0].Topic)

			switch p := res[0].Payload.(type) {
			case *sessionevents.SessionStartedPayloadV1:
				assert.Equal(t, id, p.SessionID)
				assert.Equal(t, chat, p.ChatID)
			case *sessionevents.SessionFailedPayloadV1:
				assert.Equal(t, sessiontypes.CodeModeMismatch, p.Code)
			default:
				t.Fatalf("unexpected payload %T", p)
			}
		})
	}
}

func TestHandleSubmitRound(t *testing.T) {
	tests := []struct {
		name      string
		result    sessionservice.RoundResult
		err       error
		wantTopic string
		wantErr   bool
	}{
		{
			name: "scored",
			result: results.SuccessResult[*sessiontypes.RoundOutcome, *sessiontypes.Failure](&sessiontypes.RoundOutcome{
				Mode:  sessiontypes.ModeTarok,
				Tarok: &tarokengine.RoundResult{Deltas: map[sharedtypes.PlayerID]int{"ana": 10}},
			}),
			wantTopic: sessionevents.RoundScoredV1,
		},
		{
			name:      "rejected",
			result:    results.FailureResult[*sessiontypes.RoundOutcome](failure(sharedtypes.CodeUnknownPlayer)),
			wantTopic: sessionevents.RoundRejectedV1,
		},
		{
			name:    "infrastructure error",
			err:     errors.New("tx aborted"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeSessionService()
			var gotText string
			svc.SubmitRoundFunc = func(ctx context.Context, chatID sharedtypes.ChatID, text string) (sessionservice.RoundResult, error) {
				gotText = text
				return tt.result, tt.err
			}

			res, err := newHandlers(svc).HandleSubmitRound(context.Background(), &sessionevents.RoundSubmittedPayloadV1{ChatID: chat, Text: "/r I3 ANA"})
			assert.Equal(t, "/r I3 ANA", gotText)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, tt.wantTopic, res[0].Topic)

			switch p := res[0].Payload.(type) {
			case *sessionevents.RoundScoredPayloadV1:
				assert.Equal(t, 10, p.Outcome.Deltas()["ana"])
			case *sessionevents.RoundRejectedPayloadV1:
				assert.Equal(t, sharedtypes.CodeUnknownPlayer, p.Code)
				assert.Equal(t, "X", p.Token)
				assert.Equal(t, "/r I3 ANA", p.Text)
			default:
				t.Fatalf("unexpected payload %T", p)
			}
		})
	}
}

func TestHandleGetReport(t *testing.T) {
	svc := NewFakeSessionService()
	svc.GetReportFunc = func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.ReportResult, error) {
		return results.SuccessResult[*sessiontypes.Report, *sessiontypes.Failure](&sessiontypes.Report{Mode: sessiontypes.ModeTarok, Rounds: 3}), nil
	}
	res, err := newHandlers(svc).HandleGetReport(context.Background(), &sessionevents.ReportRequestedPayloadV1{ChatID: chat})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, sessionevents.ReportReadyV1, res[0].Topic)
	assert.Equal(t, 3, res[0].Payload.(*sessionevents.ReportReadyPayloadV1).Report.Rounds)

	svc.GetReportFunc = func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.ReportResult, error) {
		return results.FailureResult[*sessiontypes.Report](failure(sessiontypes.CodeNoSession)), nil
	}
	res, err = newHandlers(svc).HandleGetReport(context.Background(), &sessionevents.ReportRequestedPayloadV1{ChatID: chat})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, sessionevents.ReportFailedV1, res[0].Topic)
}

func TestHandleEndSession(t *testing.T) {
	id := uuid.New()
	end := &sessiontypes.EndResult{
		Session:  sessiontypes.SessionInfo{ID: id, State: sessiontypes.StateEnded},
		FileName: "2026_10_14_18_30_00_UTC_tarok.html",
		HTML:     "<html></html>",
	}

	svc := NewFakeSessionService()
	svc.EndSessionFunc = func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.EndResult, error) {
		return results.SuccessResult[*sessiontypes.EndResult, *sessiontypes.Failure](end), nil
	}
	res, err := newHandlers(svc).HandleEndSession(context.Background(), &sessionevents.SessionEndRequestedPayloadV1{ChatID: chat})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, sessionevents.SessionEndedV1, res[0].Topic)
	p := res[0].Payload.(*sessionevents.SessionEndedPayloadV1)
	assert.Equal(t, id, p.SessionID)
	assert.Equal(t, sessiontypes.StateEnded, p.Reason)
	assert.Equal(t, end.FileName, p.FileName)

	svc.EndSessionFunc = func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.EndResult, error) {
		return results.FailureResult[*sessiontypes.EndResult](failure(sessiontypes.CodeNoSession)), nil
	}
	res, err = newHandlers(svc).HandleEndSession(context.Background(), &sessionevents.SessionEndRequestedPayloadV1{ChatID: chat})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, sessionevents.SessionEndFailedV1, res[0].Topic)
}

func TestHandleIdleExpiry(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name        string
		result      sessionservice.EndResult
		err         error
		wantResults int
		wantTopic   string
		wantErr     bool
	}{
		{
			name: "expired",
			result: results.SuccessResult[*sessiontypes.EndResult, *sessiontypes.Failure](&sessiontypes.EndResult{
				Session: sessiontypes.SessionInfo{ID: id, State: sessiontypes.StateExpired},
			}),
			wantResults: 1,
			wantTopic:   sessionevents.SessionEndedV1,
		},
		{
			name:   "session moved on",
			result: results.FailureResult[*sessiontypes.EndResult](failure(sessiontypes.CodeSessionChanged)),
		},
		{
			name:   "already ended",
			result: results.FailureResult[*sessiontypes.EndResult](failure(sessiontypes.CodeNoSession)),
		},
		{
			name:        "restore failed",
			result:      results.FailureResult[*sessiontypes.EndResult](failure(sessiontypes.CodeRestoreFailed)),
			wantResults: 1,
			wantTopic:   sessionevents.SessionEndFailedV1,
		},
		{
			name:    "error",
			err:     errors.New("db down"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeSessionService()
			svc.ExpireIdleFunc = func(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int) (sessionservice.EndResult, error) {
				assert.Equal(t, id, sessionID)
				assert.Equal(t, 4, rounds)
				return tt.result, tt.err
			}

			res, err := newHandlers(svc).HandleIdleExpiry(context.Background(), &sessionevents.IdleExpiryRequestedPayloadV1{ChatID: chat, SessionID: id, LastRound: 4})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res, tt.wantResults)
			if tt.wantResults > 0 {
				assert.Equal(t, tt.wantTopic, res[0].Topic)
			}
			assert.Equal(t, []string{"ExpireIdle"}, svc.Trace())
		})
	}
}
