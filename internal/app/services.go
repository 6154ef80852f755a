package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	redisclient "github.com/mioplatform/mio-backend/internal/clients/redis"
	dataagg "github.com/mioplatform/mio-backend/internal/data/aggregates"
	"github.com/mioplatform/mio-backend/internal/observability"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
	"github.com/mioplatform/mio-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	Enrollment      services.EnrollmentService
	Assignment      services.AssignmentService
	Completion      services.CompletionService
	Signal          services.SignalService
	Advancement     services.AdvancementService
	Event           services.EventService
	ProgramProgress services.ProgramProgressService
	Coach           services.CoachPermissionService

	Publisher services.EventPublisher
	Bus       redisclient.EventBus
	Lease     redisclient.Lease
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	r Repos,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	agg := dataagg.NewProgressionAggregate(dataagg.ProgressionAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:       db,
			Log:      log,
			Hooks:    dataagg.NewObservabilityHooks(metrics),
			CASGuard: dataagg.NewCASGuard(db),
		},
		Assignments: r.Assignment,
		Progress:    r.TacticProgress,
		Completions: r.CompletionRecord,
		Events:      r.LifecycleEvent,
		Protocols:   r.Protocol,
		Tasks:       r.ProtocolTask,
		Tactics:     r.Tactic,
	})

	// Redis is optional. Without it events stay in postgres only and the
	// advancement sweep runs without a distributed lease.
	var (
		bus       redisclient.EventBus
		lease     redisclient.Lease
		publisher = services.NewNoopPublisher()
	)
	if cfg.RedisAddr != "" {
		b, err := redisclient.NewEventBus(log)
		if err != nil {
			return Services{}, fmt.Errorf("failed to connect event bus: %w", err)
		}
		bus = b
		publisher = services.NewBusPublisher(log, bus)

		l, err := redisclient.NewLease(log, leaseToken())
		if err != nil {
			return Services{}, fmt.Errorf("failed to connect advancer lease: %w", err)
		}
		lease = l
	} else {
		log.Warn("REDIS_ADDR not set, running without event bus and advancer lease")
	}

	auth, err := services.NewAuthService(log, r.User)
	if err != nil {
		return Services{}, err
	}

	coach := services.NewCoachPermissionService(log, r.User)

	return Services{
		Auth:            auth,
		Enrollment:      services.NewEnrollmentService(log, agg, r.Protocol, publisher),
		Assignment:      services.NewAssignmentService(log, agg, r.Assignment, r.Protocol, r.ProtocolTask, publisher),
		Completion:      services.NewCompletionService(log, agg, publisher),
		Signal:          services.NewSignalService(log, agg, coach, publisher),
		Advancement:     services.NewAdvancementService(log, agg, r.Assignment, lease, publisher, metrics),
		Event:           services.NewEventService(log, r.LifecycleEvent, r.Assignment),
		ProgramProgress: services.NewProgramProgressService(log, r.Program, r.ProgramPhase, r.Lesson, r.Tactic, r.TacticProgress),
		Coach:           coach,
		Publisher:       publisher,
		Bus:             bus,
		Lease:           lease,
	}, nil
}

func leaseToken() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("mio-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
