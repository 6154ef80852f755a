package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type LifecycleEventRepo interface {
	Create(dbc dbctx.Context, events []*types.LifecycleEvent) ([]*types.LifecycleEvent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LifecycleEvent, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LifecycleEvent, error)
	ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.LifecycleEvent, error)
	SettleOutcome(dbc dbctx.Context, id uuid.UUID, outcome types.EventOutcome, at time.Time) (bool, error)
}

type lifecycleEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return &lifecycleEventRepo{
		db:  db,
		log: baseLog.With("repo", "LifecycleEventRepo"),
	}
}

func (r *lifecycleEventRepo) Create(dbc dbctx.Context, events []*types.LifecycleEvent) ([]*types.LifecycleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return []*types.LifecycleEvent{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *lifecycleEventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LifecycleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var ev types.LifecycleEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

func (r *lifecycleEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LifecycleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.LifecycleEvent
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("emitted_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lifecycleEventRepo) ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.LifecycleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.LifecycleEvent
	if assignmentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("assignment_id = ?", assignmentID).
		Order("emitted_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SettleOutcome moves a pending event to a terminal outcome exactly once.
func (r *lifecycleEventRepo) SettleOutcome(dbc dbctx.Context, id uuid.UUID, outcome types.EventOutcome, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.LifecycleEvent{}).
		Where("id = ? AND outcome = ?", id, types.OutcomePending).
		Updates(map[string]any{
			"outcome":    outcome,
			"outcome_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
