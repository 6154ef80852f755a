package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
)

type fakeEventRepo struct {
	byID      map[uuid.UUID]*types.LifecycleEvent
	lastLimit int
}

func (f *fakeEventRepo) Create(_ dbctx.Context, events []*types.LifecycleEvent) ([]*types.LifecycleEvent, error) {
	return events, nil
}
func (f *fakeEventRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.LifecycleEvent, error) {
	return f.byID[id], nil
}
func (f *fakeEventRepo) ListByUser(_ dbctx.Context, _ uuid.UUID, limit int) ([]*types.LifecycleEvent, error) {
	f.lastLimit = limit
	return nil, nil
}
func (f *fakeEventRepo) ListByAssignment(_ dbctx.Context, _ uuid.UUID) ([]*types.LifecycleEvent, error) {
	return nil, nil
}
func (f *fakeEventRepo) SettleOutcome(_ dbctx.Context, id uuid.UUID, outcome types.EventOutcome, at time.Time) (bool, error) {
	ev, ok := f.byID[id]
	if !ok || ev.Outcome != types.OutcomePending {
		return false, nil
	}
	ev.Outcome = outcome
	ev.OutcomeAt = &at
	return true, nil
}

func TestSettleOutcomeOnce(t *testing.T) {
	eventID := uuid.New()
	repo := &fakeEventRepo{byID: map[uuid.UUID]*types.LifecycleEvent{
		eventID: {ID: eventID, Outcome: types.OutcomePending},
	}}
	svc := NewEventService(testLogger(t), repo, &fakeAssignmentRepo{})

	ev, err := svc.SettleOutcome(context.Background(), eventID, types.OutcomeSuccess)
	if err != nil {
		t.Fatalf("SettleOutcome: %v", err)
	}
	if ev.Outcome != types.OutcomeSuccess || ev.OutcomeAt == nil {
		t.Fatalf("outcome not recorded: %+v", ev)
	}

	_, err = svc.SettleOutcome(context.Background(), eventID, types.OutcomeFailed)
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition failure on replay, got %v", err)
	}
	if repo.byID[eventID].Outcome != types.OutcomeSuccess {
		t.Fatal("replay must not change the settled outcome")
	}
}

func TestSettleOutcomeRejectsPendingAndGarbage(t *testing.T) {
	svc := NewEventService(testLogger(t), &fakeEventRepo{byID: map[uuid.UUID]*types.LifecycleEvent{}}, &fakeAssignmentRepo{})

	if _, err := svc.SettleOutcome(context.Background(), uuid.New(), types.OutcomePending); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error for pending, got %v", err)
	}
	if _, err := svc.SettleOutcome(context.Background(), uuid.New(), types.EventOutcome("shrug")); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error for unknown outcome, got %v", err)
	}
}

func TestSettleOutcomeUnknownEvent(t *testing.T) {
	svc := NewEventService(testLogger(t), &fakeEventRepo{byID: map[uuid.UUID]*types.LifecycleEvent{}}, &fakeAssignmentRepo{})

	_, err := svc.SettleOutcome(context.Background(), uuid.New(), types.OutcomeFailed)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListForUserClampsLimit(t *testing.T) {
	repo := &fakeEventRepo{byID: map[uuid.UUID]*types.LifecycleEvent{}}
	svc := NewEventService(testLogger(t), repo, &fakeAssignmentRepo{})

	if _, err := svc.ListForUser(context.Background(), uuid.New(), 0); err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if repo.lastLimit != defaultEventListLimit {
		t.Fatalf("expected default limit, got %d", repo.lastLimit)
	}
	if _, err := svc.ListForUser(context.Background(), uuid.New(), 10_000); err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if repo.lastLimit != defaultEventListLimit {
		t.Fatalf("oversized limit not clamped, got %d", repo.lastLimit)
	}
}

func TestListForAssignmentChecksOwnership(t *testing.T) {
	owner := uuid.New()
	assignmentID := uuid.New()
	assignments := &fakeAssignmentRepo{byID: map[uuid.UUID]*types.Assignment{
		assignmentID: {ID: assignmentID, UserID: owner},
	}}
	svc := NewEventService(testLogger(t), &fakeEventRepo{byID: map[uuid.UUID]*types.LifecycleEvent{}}, assignments)

	if _, err := svc.ListForAssignment(context.Background(), owner, assignmentID); err != nil {
		t.Fatalf("owner list: %v", err)
	}
	_, err := svc.ListForAssignment(context.Background(), uuid.New(), assignmentID)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}
}
