package progression

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type CompletionRecordRepo interface {
	Create(dbc dbctx.Context, records []*types.CompletionRecord) ([]*types.CompletionRecord, error)
	GetByAssignmentTask(dbc dbctx.Context, assignmentID, taskID uuid.UUID) (*types.CompletionRecord, error)
	ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.CompletionRecord, error)
	CountByAssignmentTasks(dbc dbctx.Context, assignmentID uuid.UUID, taskIDs []uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type completionRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRecordRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRecordRepo {
	return &completionRecordRepo{
		db:  db,
		log: baseLog.With("repo", "CompletionRecordRepo"),
	}
}

func (r *completionRecordRepo) Create(dbc dbctx.Context, records []*types.CompletionRecord) ([]*types.CompletionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return []*types.CompletionRecord{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *completionRecordRepo) GetByAssignmentTask(dbc dbctx.Context, assignmentID, taskID uuid.UUID) (*types.CompletionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if assignmentID == uuid.Nil || taskID == uuid.Nil {
		return nil, nil
	}
	var rec types.CompletionRecord
	err := transaction.WithContext(dbc.Ctx).
		Where("assignment_id = ? AND task_id = ?", assignmentID, taskID).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *completionRecordRepo) ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.CompletionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CompletionRecord
	if assignmentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("assignment_id = ?", assignmentID).
		Order("completed_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completionRecordRepo) CountByAssignmentTasks(dbc dbctx.Context, assignmentID uuid.UUID, taskIDs []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if assignmentID == uuid.Nil || len(taskIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.CompletionRecord{}).
		Where("assignment_id = ? AND task_id IN ? AND kind = ?", assignmentID, taskIDs, types.CompletionDone).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *completionRecordRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.CompletionRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}
