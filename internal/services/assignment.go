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
	"github.com/mioplatform/mio-backend/internal/progression/schedule"
)

// AssignmentState is the read model for one assignment: the stored row
// plus the clock position it would advance to right now and the tasks
// scheduled for that day.
type AssignmentState struct {
	Assignment  types.Assignment      `json:"assignment"`
	Protocol    types.Protocol        `json:"protocol"`
	Week        int                   `json:"week"`
	Day         int                   `json:"day"`
	AbsoluteDay int                   `json:"absolute_day"`
	PastEnd     bool                  `json:"past_end"`
	ProgressPct float64               `json:"progress_pct"`
	TodayTasks  []*types.ProtocolTask `json:"today_tasks"`
}

type AssignmentService interface {
	GetState(ctx context.Context, userID, assignmentID uuid.UUID) (*AssignmentState, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Assignment, error)
	Pause(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error)
	Resume(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error)
	Abandon(ctx context.Context, userID, assignmentID uuid.UUID, reason string) (*types.Assignment, error)
	Restart(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error)
}

type assignmentService struct {
	log         *logger.Logger
	agg         domainagg.ProgressionAggregate
	assignments repos.AssignmentRepo
	protocols   repos.ProtocolRepo
	tasks       repos.ProtocolTaskRepo
	publisher   EventPublisher
}

func NewAssignmentService(
	log *logger.Logger,
	agg domainagg.ProgressionAggregate,
	assignments repos.AssignmentRepo,
	protocols repos.ProtocolRepo,
	tasks repos.ProtocolTaskRepo,
	publisher EventPublisher,
) AssignmentService {
	return &assignmentService{
		log:         log.With("service", "AssignmentService"),
		agg:         agg,
		assignments: assignments,
		protocols:   protocols,
		tasks:       tasks,
		publisher:   publisher,
	}
}

func (s *assignmentService) GetState(ctx context.Context, userID, assignmentID uuid.UUID) (*AssignmentState, error) {
	a, err := s.loadOwned(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	p, err := s.protocols.GetByID(dbctx.Context{Ctx: ctx}, a.ProtocolID)
	if err != nil {
		return nil, dataagg.MapError("assignment.get_state", err)
	}
	if p == nil {
		return nil, dataagg.MapError("assignment.get_state", dataagg.InvariantError("assignment references missing protocol"))
	}

	state := &AssignmentState{
		Assignment:  *a,
		Protocol:    *p,
		Week:        a.CurrentWeek,
		Day:         a.CurrentDay,
		AbsoluteDay: a.AbsoluteDay,
	}
	// For an active assignment report the live clock, not the last
	// persisted pointer; a tick may not have run yet today.
	if a.Status == types.AssignmentActive {
		pos := schedule.Compute(a.StartAt, time.Now(), p.TotalWeeks)
		state.Week = pos.Week
		state.Day = pos.Day
		state.AbsoluteDay = pos.AbsoluteDay
		state.PastEnd = pos.PastEnd
	}

	if total := p.TotalDays(); total > 0 {
		state.ProgressPct = float64(a.DaysCompleted) / float64(total) * 100
		if state.ProgressPct > 100 {
			state.ProgressPct = 100
		}
	}

	tasks, err := s.tasks.ListForDay(dbctx.Context{Ctx: ctx}, p.ID, state.Week, state.Day)
	if err != nil {
		return nil, dataagg.MapError("assignment.get_state", err)
	}
	state.TodayTasks = tasks
	return state, nil
}

func (s *assignmentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Assignment, error) {
	list, err := s.assignments.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, dataagg.MapError("assignment.list", err)
	}
	return list, nil
}

func (s *assignmentService) Pause(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error) {
	return s.transition(ctx, userID, assignmentID, types.AssignmentPaused, "")
}

func (s *assignmentService) Resume(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error) {
	return s.transition(ctx, userID, assignmentID, types.AssignmentActive, "resume")
}

func (s *assignmentService) Abandon(ctx context.Context, userID, assignmentID uuid.UUID, reason string) (*types.Assignment, error) {
	return s.transition(ctx, userID, assignmentID, types.AssignmentAbandoned, reason)
}

func (s *assignmentService) Restart(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error) {
	return s.transition(ctx, userID, assignmentID, types.AssignmentActive, "restart")
}

func (s *assignmentService) transition(ctx context.Context, userID, assignmentID uuid.UUID, target types.AssignmentStatus, reason string) (*types.Assignment, error) {
	if _, err := s.loadOwned(ctx, userID, assignmentID); err != nil {
		return nil, err
	}
	res, err := s.agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: assignmentID,
		Target:       target,
		Reason:       reason,
		ActorID:      userID,
		EventAt:      time.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.publisher.PublishEvents(ctx, res.Events)
	return &res.Assignment, nil
}

func (s *assignmentService) loadOwned(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error) {
	a, err := s.assignments.GetByID(dbctx.Context{Ctx: ctx}, assignmentID)
	if err != nil {
		return nil, dataagg.MapError("assignment.load", err)
	}
	if a == nil || a.UserID != userID {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "assignment.load", "assignment not found", nil)
	}
	return a, nil
}
