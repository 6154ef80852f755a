package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type CompleteTaskInput struct {
	UserID       uuid.UUID
	AssignmentID uuid.UUID
	TaskID       uuid.UUID
	Skip         bool
	Response     map[string]any
	Notes        string
	Rating       *int
}

type CompleteTaskResult struct {
	Record      types.CompletionRecord
	DayComplete bool
	Assignment  types.Assignment
}

type CompletionService interface {
	CompleteTask(ctx context.Context, in CompleteTaskInput) (*CompleteTaskResult, error)
}

type completionService struct {
	log       *logger.Logger
	agg       domainagg.ProgressionAggregate
	publisher EventPublisher
}

func NewCompletionService(log *logger.Logger, agg domainagg.ProgressionAggregate, publisher EventPublisher) CompletionService {
	return &completionService{
		log:       log.With("service", "CompletionService"),
		agg:       agg,
		publisher: publisher,
	}
}

func (s *completionService) CompleteTask(ctx context.Context, in CompleteTaskInput) (*CompleteTaskResult, error) {
	kind := types.CompletionDone
	if in.Skip {
		kind = types.CompletionSkipped
	}

	res, err := s.agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       in.UserID,
		AssignmentID: in.AssignmentID,
		TaskID:       in.TaskID,
		Kind:         kind,
		Response:     in.Response,
		Notes:        in.Notes,
		Rating:       in.Rating,
		EventAt:      time.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEvents(ctx, res.Events)
	if res.DayComplete {
		s.log.Info("day completed",
			"user_id", in.UserID,
			"assignment_id", in.AssignmentID,
			"days_completed", res.Assignment.DaysCompleted)
	}
	return &CompleteTaskResult{
		Record:      res.Record,
		DayComplete: res.DayComplete,
		Assignment:  res.Assignment,
	}, nil
}
