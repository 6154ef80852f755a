package services

import (
	"context"

	redisclient "github.com/mioplatform/mio-backend/internal/clients/redis"
	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

// EventPublisher fans persisted lifecycle events out to external
// consumers. Publishing is best-effort: the row in lifecycle_event is the
// durable record, the broadcast is a hint.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []types.LifecycleEvent)
}

type busPublisher struct {
	log *logger.Logger
	bus redisclient.EventBus
}

func NewBusPublisher(log *logger.Logger, bus redisclient.EventBus) EventPublisher {
	return &busPublisher{
		log: log.With("service", "BusPublisher"),
		bus: bus,
	}
}

func (p *busPublisher) PublishEvents(ctx context.Context, events []types.LifecycleEvent) {
	if p == nil || p.bus == nil || len(events) == 0 {
		return
	}
	if err := p.bus.Publish(ctx, events); err != nil {
		p.log.Warn("event broadcast failed", "error", err, "count", len(events))
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when redis is not configured (local mode).
func NewNoopPublisher() EventPublisher { return noopPublisher{} }

func (noopPublisher) PublishEvents(context.Context, []types.LifecycleEvent) {}
