package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
)

func TestReportSignalPassesThrough(t *testing.T) {
	userID := uuid.New()
	tacticID := uuid.New()
	pct := 92.0

	var got domainagg.ApplySignalInput
	agg := &fakeAggregate{
		signalFn: func(_ context.Context, in domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error) {
			got = in
			return domainagg.ApplySignalResult{
				Progress:     types.TacticProgress{UserID: in.UserID, TacticID: in.TacticID, AllGatesMet: true},
				GatesCrossed: true,
				Events:       []types.LifecycleEvent{{EventType: types.EventCompletionGatePassed}},
			}, nil
		},
	}
	pub := &capturePublisher{}
	svc := NewSignalService(testLogger(t), agg, &fakeCoachPermission{}, pub)

	progress, err := svc.Report(context.Background(), SignalInput{
		UserID:        userID,
		TacticID:      tacticID,
		VideoWatchPct: &pct,
		AttemptDelta:  1,
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !progress.AllGatesMet {
		t.Fatal("expected gates met in returned progress")
	}
	if got.VideoWatchPct == nil || *got.VideoWatchPct != pct {
		t.Fatalf("video pct not forwarded, got %v", got.VideoWatchPct)
	}
	if got.Override {
		t.Fatal("override must not be set without a request")
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d events, want 1", len(pub.published))
	}
}

func TestReportSignalOverrideRequiresPermission(t *testing.T) {
	agg := &fakeAggregate{
		signalFn: func(context.Context, domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error) {
			t.Fatal("aggregate must not run when override is denied")
			return domainagg.ApplySignalResult{}, nil
		},
	}
	svc := NewSignalService(testLogger(t), agg, &fakeCoachPermission{allowed: false}, &capturePublisher{})

	_, err := svc.Report(context.Background(), SignalInput{
		UserID:   uuid.New(),
		TacticID: uuid.New(),
		ActorID:  uuid.New(),
		Override: true,
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("unexpected error: %v", err)
	}
	if domainagg.MessageOf(err) != "override_not_permitted" {
		t.Fatalf("unexpected reason: %q", domainagg.MessageOf(err))
	}
}

func TestReportSignalOverrideStampsActor(t *testing.T) {
	actorID := uuid.New()
	var got domainagg.ApplySignalInput
	agg := &fakeAggregate{
		signalFn: func(_ context.Context, in domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error) {
			got = in
			return domainagg.ApplySignalResult{Progress: types.TacticProgress{AllGatesMet: true}}, nil
		},
	}
	svc := NewSignalService(testLogger(t), agg, &fakeCoachPermission{allowed: true}, &capturePublisher{})

	_, err := svc.Report(context.Background(), SignalInput{
		UserID:   uuid.New(),
		TacticID: uuid.New(),
		ActorID:  actorID,
		Override: true,
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !got.Override {
		t.Fatal("override flag not forwarded")
	}
	if got.OverriddenBy == nil || *got.OverriddenBy != actorID {
		t.Fatalf("overridden_by = %v, want %s", got.OverriddenBy, actorID)
	}
}
