package sessionhandlers

import (
	"context"

	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/google/uuid"
)

// ------------------------
// Fake Session Service
// ------------------------

type FakeSessionService struct {
	trace []string

	StartSessionFunc func(ctx context.Context, chatID sharedtypes.ChatID, mode string) (sessionservice.StartResult, error)
	SubmitRoundFunc  func(ctx context.Context, chatID sharedtypes.ChatID, text string) (sessionservice.RoundResult, error)
	GetReportFunc    func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.ReportResult, error)
	EndSessionFunc   func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.EndResult, error)
	ExpireIdleFunc   func(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int) (sessionservice.EndResult, error)
	RestoreFunc      func(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.StartResult, error)
}

func NewFakeSessionService() *FakeSessionService {
	return &FakeSessionService{
		trace: []string{},
	}
}

func (f *FakeSessionService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSessionService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Service Interface Implementation ---

func (f *FakeSessionService) StartSession(ctx context.Context, chatID sharedtypes.ChatID, mode string) (sessionservice.StartResult, error) {
	f.record("StartSession")
	if f.StartSessionFunc != nil {
		return f.StartSessionFunc(ctx, chatID, mode)
	}
	return sessionservice.StartResult{}, nil
}

func (f *FakeSessionService) SubmitRound(ctx context.Context, chatID sharedtypes.ChatID, text string) (sessionservice.RoundResult, error) {
	f.record("SubmitRound")
	if f.SubmitRoundFunc != nil {
		return f.SubmitRoundFunc(ctx, chatID, text)
	}
	return sessionservice.RoundResult{}, nil
}

func (f *FakeSessionService) GetReport(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.ReportResult, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, chatID)
	}
	return sessionservice.ReportResult{}, nil
}

func (f *FakeSessionService) EndSession(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.EndResult, error) {
	f.record("EndSession")
	if f.EndSessionFunc != nil {
		return f.EndSessionFunc(ctx, chatID)
	}
	return sessionservice.EndResult{}, nil
}

func (f *FakeSessionService) ExpireIdle(ctx context.Context, chatID sharedtypes.ChatID, sessionID uuid.UUID, rounds int) (sessionservice.EndResult, error) {
	f.record("ExpireIdle")
	if f.ExpireIdleFunc != nil {
		return f.ExpireIdleFunc(ctx, chatID, sessionID, rounds)
	}
	return sessionservice.EndResult{}, nil
}

func (f *FakeSessionService) Restore(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.StartResult, error) {
	f.record("Restore")
	if f.RestoreFunc != nil {
		return f.RestoreFunc(ctx, chatID)
	}
	return sessionservice.StartResult{}, nil
}

var _ sessionservice.Service = (*FakeSessionService)(nil)
