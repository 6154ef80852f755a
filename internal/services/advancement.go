package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	redisclient "github.com/mioplatform/mio-backend/internal/clients/redis"
	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/observability"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

const (
	tickPageSize    = 200
	tickConcurrency = 8
	tickLeaseTTL    = 2 * time.Minute

	// defaultPausedExpiryDays bounds how long an assignment may sit paused
	// before the sweep expires it. PAUSED_EXPIRY_DAYS overrides; zero
	// disables expiry entirely.
	defaultPausedExpiryDays = 30
)

// TickReport summarizes one advancement sweep.
type TickReport struct {
	Processed int       `json:"processed"`
	Advanced  int       `json:"advanced"`
	Completed int       `json:"completed"`
	Expired   int       `json:"expired"`
	Failed    int       `json:"failed"`
	Skipped   bool      `json:"skipped"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// AdvancementService walks every active assignment and moves its day
// pointer to wherever the wall clock says it should be. A single failing
// assignment never aborts the sweep.
type AdvancementService interface {
	Tick(ctx context.Context, now time.Time) (*TickReport, error)
}

type advancementService struct {
	log         *logger.Logger
	agg         domainagg.ProgressionAggregate
	assignments repos.AssignmentRepo
	lease       redisclient.Lease
	publisher   EventPublisher
	metrics     *observability.Metrics
	expireAfter time.Duration
}

func NewAdvancementService(
	log *logger.Logger,
	agg domainagg.ProgressionAggregate,
	assignments repos.AssignmentRepo,
	lease redisclient.Lease,
	publisher EventPublisher,
	metrics *observability.Metrics,
) AdvancementService {
	return &advancementService{
		log:         log.With("service", "AdvancementService"),
		agg:         agg,
		assignments: assignments,
		lease:       lease,
		publisher:   publisher,
		metrics:     metrics,
		expireAfter: time.Duration(envutil.Int("PAUSED_EXPIRY_DAYS", defaultPausedExpiryDays)) * 24 * time.Hour,
	}
}

func (s *advancementService) Tick(ctx context.Context, now time.Time) (*TickReport, error) {
	report := &TickReport{StartedAt: now}

	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, tickLeaseTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Skipped = true
			s.log.Info("advancement tick skipped, lease held elsewhere")
			return report, nil
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("lease release failed", "error", err)
			}
		}()
	}

	var mu sync.Mutex
	var afterID *uuid.UUID
	for {
		ids, err := s.assignments.ListActiveIDs(dbctx.Context{Ctx: ctx}, tickPageSize, afterID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		last := ids[len(ids)-1]
		afterID = &last

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(tickConcurrency)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				res, err := s.agg.AdvanceAssignment(gctx, domainagg.AdvanceAssignmentInput{
					AssignmentID: id,
					Now:          now,
				})

				mu.Lock()
				defer mu.Unlock()
				report.Processed++
				if err != nil {
					report.Failed++
					s.log.Error("assignment advancement failed", "assignment_id", id, "error", err)
					return nil
				}
				if res.Moved {
					report.Advanced++
				}
				if res.PastEnd {
					report.Completed++
				}
				s.publisher.PublishEvents(gctx, res.Events)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if len(ids) < tickPageSize {
			break
		}
	}

	if err := s.expirePaused(ctx, now, report); err != nil {
		return nil, err
	}

	dur := time.Since(now)
	report.Duration = dur.String()
	if s.metrics != nil {
		s.metrics.ObserveAdvancementTick(dur, report.Processed, report.Advanced, report.Completed, report.Failed)
	}
	s.log.Info("advancement tick finished",
		"processed", report.Processed,
		"advanced", report.Advanced,
		"completed", report.Completed,
		"expired", report.Expired,
		"failed", report.Failed,
		"duration", report.Duration)
	return report, nil
}

// expirePaused retires assignments that have sat paused past the grace
// window. Volume is small, so the sweep runs serially.
func (s *advancementService) expirePaused(ctx context.Context, now time.Time, report *TickReport) error {
	if s.expireAfter <= 0 {
		return nil
	}
	cutoff := now.Add(-s.expireAfter)

	var afterID *uuid.UUID
	for {
		ids, err := s.assignments.ListPausedBefore(dbctx.Context{Ctx: ctx}, cutoff, tickPageSize, afterID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		last := ids[len(ids)-1]
		afterID = &last

		for _, id := range ids {
			res, err := s.agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
				AssignmentID: id,
				Target:       types.AssignmentExpired,
				Reason:       "paused_grace_elapsed",
				EventAt:      now,
			})
			report.Processed++
			if err != nil {
				report.Failed++
				s.log.Error("assignment expiry failed", "assignment_id", id, "error", err)
				continue
			}
			report.Expired++
			s.publisher.PublishEvents(ctx, res.Events)
		}
		if len(ids) < tickPageSize {
			return nil
		}
	}
}
