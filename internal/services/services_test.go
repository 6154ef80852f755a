package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeAggregate struct {
	enrollFn     func(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error)
	completionFn func(ctx context.Context, in domainagg.RecordCompletionInput) (domainagg.RecordCompletionResult, error)
	signalFn     func(ctx context.Context, in domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error)
	advanceFn    func(ctx context.Context, in domainagg.AdvanceAssignmentInput) (domainagg.AdvanceAssignmentResult, error)
	transitionFn func(ctx context.Context, in domainagg.TransitionStatusInput) (domainagg.TransitionStatusResult, error)
}

func (f *fakeAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	return f.enrollFn(ctx, in)
}
func (f *fakeAggregate) RecordCompletion(ctx context.Context, in domainagg.RecordCompletionInput) (domainagg.RecordCompletionResult, error) {
	return f.completionFn(ctx, in)
}
func (f *fakeAggregate) ApplySignal(ctx context.Context, in domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error) {
	return f.signalFn(ctx, in)
}
func (f *fakeAggregate) AdvanceAssignment(ctx context.Context, in domainagg.AdvanceAssignmentInput) (domainagg.AdvanceAssignmentResult, error) {
	return f.advanceFn(ctx, in)
}
func (f *fakeAggregate) TransitionStatus(ctx context.Context, in domainagg.TransitionStatusInput) (domainagg.TransitionStatusResult, error) {
	return f.transitionFn(ctx, in)
}
func (f *fakeAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressionAggregateContract
}

type capturePublisher struct {
	published []types.LifecycleEvent
}

func (p *capturePublisher) PublishEvents(_ context.Context, events []types.LifecycleEvent) {
	p.published = append(p.published, events...)
}

type fakeAssignmentRepo struct {
	byID        map[uuid.UUID]*types.Assignment
	activePages [][]uuid.UUID
	pageCalls   int
	pausedPages [][]uuid.UUID
	pausedCalls int
	pausedAsked []time.Time
}

func (f *fakeAssignmentRepo) Create(_ dbctx.Context, assignments []*types.Assignment) ([]*types.Assignment, error) {
	return assignments, nil
}
func (f *fakeAssignmentRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Assignment, error) {
	return f.byID[id], nil
}
func (f *fakeAssignmentRepo) GetActiveByUserSlot(_ dbctx.Context, _ uuid.UUID, _ types.AssignmentSlot) (*types.Assignment, error) {
	return nil, nil
}
func (f *fakeAssignmentRepo) ListByUser(_ dbctx.Context, userID uuid.UUID) ([]*types.Assignment, error) {
	var out []*types.Assignment
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeAssignmentRepo) ListActiveIDs(_ dbctx.Context, _ int, _ *uuid.UUID) ([]uuid.UUID, error) {
	if f.pageCalls >= len(f.activePages) {
		return nil, nil
	}
	page := f.activePages[f.pageCalls]
	f.pageCalls++
	return page, nil
}
func (f *fakeAssignmentRepo) ListPausedBefore(_ dbctx.Context, cutoff time.Time, _ int, _ *uuid.UUID) ([]uuid.UUID, error) {
	f.pausedAsked = append(f.pausedAsked, cutoff)
	if f.pausedCalls >= len(f.pausedPages) {
		return nil, nil
	}
	page := f.pausedPages[f.pausedCalls]
	f.pausedCalls++
	return page, nil
}
func (f *fakeAssignmentRepo) UpdateFields(_ dbctx.Context, _ uuid.UUID, _ map[string]any) error {
	return nil
}

type fakeCoachPermission struct {
	allowed bool
}

func (f *fakeCoachPermission) MayOverride(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return f.allowed, nil
}
