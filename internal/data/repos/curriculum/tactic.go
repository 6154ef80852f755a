package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type TacticRepo interface {
	Create(dbc dbctx.Context, tactics []*types.Tactic) ([]*types.Tactic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tactic, error)
	ListByLesson(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Tactic, error)
	ListByLessons(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Tactic, error)
}

type tacticRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTacticRepo(db *gorm.DB, baseLog *logger.Logger) TacticRepo {
	return &tacticRepo{
		db:  db,
		log: baseLog.With("repo", "TacticRepo"),
	}
}

func (r *tacticRepo) Create(dbc dbctx.Context, tactics []*types.Tactic) ([]*types.Tactic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tactics) == 0 {
		return []*types.Tactic{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&tactics).Error; err != nil {
		return nil, err
	}
	return tactics, nil
}

func (r *tacticRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tactic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var t types.Tactic
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		return nil, nil
	}
	return &t, nil
}

func (r *tacticRepo) ListByLesson(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Tactic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Tactic
	if lessonID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("lesson_id = ?", lessonID).
		Order("index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tacticRepo) ListByLessons(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Tactic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Tactic
	if len(lessonIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("lesson_id IN ?", lessonIDs).
		Order("index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
