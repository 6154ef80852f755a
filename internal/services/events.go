package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/mioplatform/mio-backend/internal/data/aggregates"
	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

const defaultEventListLimit = 50

// EventService exposes the lifecycle event feed and lets downstream
// consumers settle outcomes on events they acted on.
type EventService interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.LifecycleEvent, error)
	ListForAssignment(ctx context.Context, userID, assignmentID uuid.UUID) ([]*types.LifecycleEvent, error)
	SettleOutcome(ctx context.Context, eventID uuid.UUID, outcome types.EventOutcome) (*types.LifecycleEvent, error)
}

type eventService struct {
	log         *logger.Logger
	events      repos.LifecycleEventRepo
	assignments repos.AssignmentRepo
}

func NewEventService(log *logger.Logger, events repos.LifecycleEventRepo, assignments repos.AssignmentRepo) EventService {
	return &eventService{
		log:         log.With("service", "EventService"),
		events:      events,
		assignments: assignments,
	}
}

func (s *eventService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.LifecycleEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultEventListLimit
	}
	list, err := s.events.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, dataagg.MapError("events.list", err)
	}
	return list, nil
}

func (s *eventService) ListForAssignment(ctx context.Context, userID, assignmentID uuid.UUID) ([]*types.LifecycleEvent, error) {
	const op = "events.list_assignment"
	dbc := dbctx.Context{Ctx: ctx}
	a, err := s.assignments.GetByID(dbc, assignmentID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if a == nil || a.UserID != userID {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
	}
	list, err := s.events.ListByAssignment(dbc, assignmentID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return list, nil
}

// SettleOutcome records how an emitted event played out. Each event
// settles at most once; replays surface as precondition failures.
func (s *eventService) SettleOutcome(ctx context.Context, eventID uuid.UUID, outcome types.EventOutcome) (*types.LifecycleEvent, error) {
	const op = "events.settle"
	if !outcome.IsValid() || outcome == types.OutcomePending {
		return nil, dataagg.MapError(op, dataagg.ValidationError("invalid outcome"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	settled, err := s.events.SettleOutcome(dbc, eventID, outcome, time.Now())
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if !settled {
		ev, err := s.events.GetByID(dbc, eventID)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		if ev == nil {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "event not found", nil)
		}
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, "event_already_settled", nil)
	}

	ev, err := s.events.GetByID(dbc, eventID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	s.log.Info("event outcome settled", "event_id", eventID, "outcome", outcome)
	return ev, nil
}
