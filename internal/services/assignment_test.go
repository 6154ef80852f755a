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

type fakeTaskRepo struct {
	tasks    []*types.ProtocolTask
	lastWeek int
	lastDay  int
}

func (f *fakeTaskRepo) Create(_ dbctx.Context, tasks []*types.ProtocolTask) ([]*types.ProtocolTask, error) {
	return tasks, nil
}
func (f *fakeTaskRepo) GetByID(_ dbctx.Context, _ uuid.UUID) (*types.ProtocolTask, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ListByProtocol(_ dbctx.Context, _ uuid.UUID) ([]*types.ProtocolTask, error) {
	return f.tasks, nil
}
func (f *fakeTaskRepo) ListForDay(_ dbctx.Context, _ uuid.UUID, week, day int) ([]*types.ProtocolTask, error) {
	f.lastWeek, f.lastDay = week, day
	return f.tasks, nil
}

func TestGetStateReportsLiveClock(t *testing.T) {
	userID := uuid.New()
	protocolID := uuid.New()
	assignmentID := uuid.New()

	// Started 9 days ago: live clock says week 2, day 3; the persisted
	// pointer is stale at week 1, day 1.
	start := time.Now().Add(-9 * 24 * time.Hour)
	assignments := &fakeAssignmentRepo{byID: map[uuid.UUID]*types.Assignment{
		assignmentID: {
			ID: assignmentID, UserID: userID, ProtocolID: protocolID,
			Status: types.AssignmentActive, StartAt: &start,
			CurrentWeek: 1, CurrentDay: 1, AbsoluteDay: 1,
			DaysCompleted: 7,
		},
	}}
	protocols := &fakeProtocolRepo{byID: map[uuid.UUID]*types.Protocol{
		protocolID: {ID: protocolID, TotalWeeks: 4},
	}}
	tasks := &fakeTaskRepo{tasks: []*types.ProtocolTask{{Title: "walk"}}}

	svc := NewAssignmentService(testLogger(t), &fakeAggregate{}, assignments, protocols, tasks, NewNoopPublisher())

	state, err := svc.GetState(context.Background(), userID, assignmentID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Week != 2 || state.Day != 3 || state.AbsoluteDay != 10 {
		t.Fatalf("unexpected live position: week=%d day=%d abs=%d", state.Week, state.Day, state.AbsoluteDay)
	}
	if tasks.lastWeek != 2 || tasks.lastDay != 3 {
		t.Fatalf("today's tasks fetched for wrong slot: week=%d day=%d", tasks.lastWeek, tasks.lastDay)
	}
	if got, want := state.ProgressPct, float64(7)/28*100; got != want {
		t.Fatalf("progress pct %v, want %v", got, want)
	}
	if len(state.TodayTasks) != 1 {
		t.Fatalf("expected today's tasks, got %d", len(state.TodayTasks))
	}
}

func TestGetStatePausedKeepsPersistedPointer(t *testing.T) {
	userID := uuid.New()
	protocolID := uuid.New()
	assignmentID := uuid.New()

	start := time.Now().Add(-30 * 24 * time.Hour)
	assignments := &fakeAssignmentRepo{byID: map[uuid.UUID]*types.Assignment{
		assignmentID: {
			ID: assignmentID, UserID: userID, ProtocolID: protocolID,
			Status: types.AssignmentPaused, StartAt: &start,
			CurrentWeek: 2, CurrentDay: 5, AbsoluteDay: 12,
		},
	}}
	protocols := &fakeProtocolRepo{byID: map[uuid.UUID]*types.Protocol{
		protocolID: {ID: protocolID, TotalWeeks: 4},
	}}
	svc := NewAssignmentService(testLogger(t), &fakeAggregate{}, assignments, protocols, &fakeTaskRepo{}, NewNoopPublisher())

	state, err := svc.GetState(context.Background(), userID, assignmentID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Week != 2 || state.Day != 5 || state.AbsoluteDay != 12 {
		t.Fatalf("paused state must keep persisted pointer, got week=%d day=%d abs=%d", state.Week, state.Day, state.AbsoluteDay)
	}
}

func TestGetStateHidesForeignAssignment(t *testing.T) {
	assignmentID := uuid.New()
	assignments := &fakeAssignmentRepo{byID: map[uuid.UUID]*types.Assignment{
		assignmentID: {ID: assignmentID, UserID: uuid.New()},
	}}
	svc := NewAssignmentService(testLogger(t), &fakeAggregate{}, assignments, &fakeProtocolRepo{}, &fakeTaskRepo{}, NewNoopPublisher())

	_, err := svc.GetState(context.Background(), uuid.New(), assignmentID)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not found for foreign assignment, got %v", err)
	}
}

func TestResumeAndRestartTargetActive(t *testing.T) {
	userID := uuid.New()
	assignmentID := uuid.New()
	assignments := &fakeAssignmentRepo{byID: map[uuid.UUID]*types.Assignment{
		assignmentID: {ID: assignmentID, UserID: userID, Status: types.AssignmentPaused},
	}}

	var reasons []string
	agg := &fakeAggregate{
		transitionFn: func(_ context.Context, in domainagg.TransitionStatusInput) (domainagg.TransitionStatusResult, error) {
			if in.Target != types.AssignmentActive {
				t.Fatalf("expected target active, got %s", in.Target)
			}
			reasons = append(reasons, in.Reason)
			return domainagg.TransitionStatusResult{
				Assignment: types.Assignment{ID: assignmentID, UserID: userID, Status: types.AssignmentActive},
			}, nil
		},
	}
	svc := NewAssignmentService(testLogger(t), agg, assignments, &fakeProtocolRepo{}, &fakeTaskRepo{}, NewNoopPublisher())

	if _, err := svc.Resume(context.Background(), userID, assignmentID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if _, err := svc.Restart(context.Background(), userID, assignmentID); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if len(reasons) != 2 || reasons[0] != "resume" || reasons[1] != "restart" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}
