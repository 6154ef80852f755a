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

type EnrollInput struct {
	UserID       uuid.UUID
	ProtocolID   uuid.UUID
	ProtocolSlug string
	Slot         types.AssignmentSlot
	StartAt      *time.Time
	Metadata     map[string]any
}

type EnrollmentService interface {
	Enroll(ctx context.Context, in EnrollInput) (*types.Assignment, error)
}

type enrollmentService struct {
	log       *logger.Logger
	agg       domainagg.ProgressionAggregate
	protocols repos.ProtocolRepo
	publisher EventPublisher
}

func NewEnrollmentService(log *logger.Logger, agg domainagg.ProgressionAggregate, protocols repos.ProtocolRepo, publisher EventPublisher) EnrollmentService {
	return &enrollmentService{
		log:       log.With("service", "EnrollmentService"),
		agg:       agg,
		protocols: protocols,
		publisher: publisher,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, in EnrollInput) (*types.Assignment, error) {
	protocolID := in.ProtocolID
	if protocolID == uuid.Nil && in.ProtocolSlug != "" {
		p, err := s.protocols.GetBySlug(dbctx.Context{Ctx: ctx}, in.ProtocolSlug)
		if err != nil {
			return nil, dataagg.MapError("enrollment.resolve_slug", err)
		}
		if p == nil {
			return nil, dataagg.MapError("enrollment.resolve_slug", dataagg.ValidationError("unknown protocol slug"))
		}
		protocolID = p.ID
	}

	res, err := s.agg.Enroll(ctx, domainagg.EnrollInput{
		UserID:     in.UserID,
		ProtocolID: protocolID,
		Slot:       in.Slot,
		StartAt:    in.StartAt,
		EventAt:    time.Now(),
		Metadata:   in.Metadata,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEvents(ctx, res.Events)
	s.log.Info("user enrolled",
		"user_id", in.UserID,
		"protocol_id", protocolID,
		"slot", res.Assignment.Slot,
		"assignment_id", res.Assignment.ID)
	return &res.Assignment, nil
}
