package progression

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type TacticProgressRepo interface {
	Create(dbc dbctx.Context, records []*types.TacticProgress) ([]*types.TacticProgress, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TacticProgress, error)
	GetByUserTactic(dbc dbctx.Context, userID, tacticID uuid.UUID) (*types.TacticProgress, error)
	ListByUserTactics(dbc dbctx.Context, userID uuid.UUID, tacticIDs []uuid.UUID) ([]*types.TacticProgress, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type tacticProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTacticProgressRepo(db *gorm.DB, baseLog *logger.Logger) TacticProgressRepo {
	return &tacticProgressRepo{
		db:  db,
		log: baseLog.With("repo", "TacticProgressRepo"),
	}
}

func (r *tacticProgressRepo) Create(dbc dbctx.Context, records []*types.TacticProgress) ([]*types.TacticProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return []*types.TacticProgress{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *tacticProgressRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TacticProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.TacticProgress
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *tacticProgressRepo) GetByUserTactic(dbc dbctx.Context, userID, tacticID uuid.UUID) (*types.TacticProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || tacticID == uuid.Nil {
		return nil, nil
	}
	var p types.TacticProgress
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND tactic_id = ?", userID, tacticID).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *tacticProgressRepo) ListByUserTactics(dbc dbctx.Context, userID uuid.UUID, tacticIDs []uuid.UUID) ([]*types.TacticProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.TacticProgress
	if userID == uuid.Nil || len(tacticIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND tactic_id IN ?", userID, tacticIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tacticProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.TacticProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}
