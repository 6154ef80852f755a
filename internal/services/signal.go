package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type SignalInput struct {
	UserID   uuid.UUID
	TacticID uuid.UUID

	VideoWatchPct  *float64
	AttemptDelta   int
	Score          *float64
	StepsCompleted *int

	// ActorID is whoever reported the signal; when it differs from
	// UserID and Override is requested, the permission service decides.
	ActorID  uuid.UUID
	Override bool
}

type SignalService interface {
	Report(ctx context.Context, in SignalInput) (*types.TacticProgress, error)
}

type signalService struct {
	log       *logger.Logger
	agg       domainagg.ProgressionAggregate
	coach     CoachPermissionService
	publisher EventPublisher
}

func NewSignalService(log *logger.Logger, agg domainagg.ProgressionAggregate, coach CoachPermissionService, publisher EventPublisher) SignalService {
	return &signalService{
		log:       log.With("service", "SignalService"),
		agg:       agg,
		coach:     coach,
		publisher: publisher,
	}
}

func (s *signalService) Report(ctx context.Context, in SignalInput) (*types.TacticProgress, error) {
	aggIn := domainagg.ApplySignalInput{
		UserID:         in.UserID,
		TacticID:       in.TacticID,
		VideoWatchPct:  in.VideoWatchPct,
		AttemptDelta:   in.AttemptDelta,
		Score:          in.Score,
		StepsCompleted: in.StepsCompleted,
		EventAt:        time.Now(),
	}

	if in.Override {
		allowed, err := s.coach.MayOverride(ctx, in.ActorID, in.UserID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, domainagg.NewError(domainagg.CodePreconditionFailed, "signal.report", "override_not_permitted", nil)
		}
		aggIn.Override = true
		aggIn.OverriddenBy = &in.ActorID
	}

	res, err := s.agg.ApplySignal(ctx, aggIn)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEvents(ctx, res.Events)
	if res.GatesCrossed {
		s.log.Info("completion gates crossed",
			"user_id", in.UserID,
			"tactic_id", in.TacticID,
			"overridden", in.Override)
	}
	return &res.Progress, nil
}
