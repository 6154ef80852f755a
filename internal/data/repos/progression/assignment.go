package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, assignments []*types.Assignment) ([]*types.Assignment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error)
	GetActiveByUserSlot(dbc dbctx.Context, userID uuid.UUID, slot types.AssignmentSlot) (*types.Assignment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Assignment, error)
	ListActiveIDs(dbc dbctx.Context, limit int, afterID *uuid.UUID) ([]uuid.UUID, error)
	ListPausedBefore(dbc dbctx.Context, cutoff time.Time, limit int, afterID *uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{
		db:  db,
		log: baseLog.With("repo", "AssignmentRepo"),
	}
}

func (r *assignmentRepo) Create(dbc dbctx.Context, assignments []*types.Assignment) ([]*types.Assignment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(assignments) == 0 {
		return []*types.Assignment{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var a types.Assignment
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, nil
	}
	return &a, nil
}

func (r *assignmentRepo) GetActiveByUserSlot(dbc dbctx.Context, userID uuid.UUID, slot types.AssignmentSlot) (*types.Assignment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var a types.Assignment
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND slot = ? AND status IN ?", userID, slot,
			[]string{string(types.AssignmentActive), string(types.AssignmentPaused)}).
		Order("created_at DESC").
		Limit(1).
		Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, nil
	}
	return &a, nil
}

func (r *assignmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Assignment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Assignment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveIDs pages active assignment ids by keyset so the advancement
// batch never loads the whole table at once.
func (r *assignmentRepo) ListActiveIDs(dbc dbctx.Context, limit int, afterID *uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Assignment{}).
		Where("status = ?", types.AssignmentActive)
	if afterID != nil && *afterID != uuid.Nil {
		q = q.Where("id > ?", *afterID)
	}
	var ids []uuid.UUID
	if err := q.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListPausedBefore pages assignments whose pause predates the cutoff, for
// the expiry sweep. Keyset paging mirrors ListActiveIDs.
func (r *assignmentRepo) ListPausedBefore(dbc dbctx.Context, cutoff time.Time, limit int, afterID *uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Assignment{}).
		Where("status = ? AND paused_at IS NOT NULL AND paused_at < ?", types.AssignmentPaused, cutoff)
	if afterID != nil && *afterID != uuid.Nil {
		q = q.Where("id > ?", *afterID)
	}
	var ids []uuid.UUID
	if err := q.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *assignmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Assignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
