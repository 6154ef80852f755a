package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
)

type fakeProtocolRepo struct {
	bySlug map[string]*types.Protocol
	byID   map[uuid.UUID]*types.Protocol
}

func (f *fakeProtocolRepo) Create(_ dbctx.Context, protocols []*types.Protocol) ([]*types.Protocol, error) {
	return protocols, nil
}
func (f *fakeProtocolRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Protocol, error) {
	return f.byID[id], nil
}
func (f *fakeProtocolRepo) GetBySlug(_ dbctx.Context, slug string) (*types.Protocol, error) {
	return f.bySlug[slug], nil
}
func (f *fakeProtocolRepo) List(_ dbctx.Context) ([]*types.Protocol, error) { return nil, nil }

func TestEnrollResolvesSlug(t *testing.T) {
	protocolID := uuid.New()
	userID := uuid.New()

	var seen domainagg.EnrollInput
	agg := &fakeAggregate{
		enrollFn: func(_ context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
			seen = in
			return domainagg.EnrollResult{
				Assignment: types.Assignment{ID: uuid.New(), UserID: in.UserID, ProtocolID: in.ProtocolID},
				Events:     []types.LifecycleEvent{{UserID: in.UserID}},
			}, nil
		},
	}
	pub := &capturePublisher{}
	svc := NewEnrollmentService(testLogger(t), agg, &fakeProtocolRepo{
		bySlug: map[string]*types.Protocol{"sleep-reset-4w": {ID: protocolID, TotalWeeks: 4}},
	}, pub)

	a, err := svc.Enroll(context.Background(), EnrollInput{
		UserID:       userID,
		ProtocolSlug: "sleep-reset-4w",
		Slot:         types.SlotPrimary,
	})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if seen.ProtocolID != protocolID {
		t.Fatalf("slug not resolved, aggregate saw %s", seen.ProtocolID)
	}
	if seen.EventAt.IsZero() {
		t.Fatal("expected EventAt to be stamped")
	}
	if a == nil || a.UserID != userID {
		t.Fatalf("unexpected assignment: %+v", a)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
}

func TestEnrollUnknownSlug(t *testing.T) {
	svc := NewEnrollmentService(testLogger(t), &fakeAggregate{}, &fakeProtocolRepo{bySlug: map[string]*types.Protocol{}}, NewNoopPublisher())

	_, err := svc.Enroll(context.Background(), EnrollInput{
		UserID:       uuid.New(),
		ProtocolSlug: "nope",
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
