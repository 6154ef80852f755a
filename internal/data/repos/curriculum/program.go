package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type ProgramRepo interface {
	Create(dbc dbctx.Context, programs []*types.Program) ([]*types.Program, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Program, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Program, error)
	List(dbc dbctx.Context) ([]*types.Program, error)
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{
		db:  db,
		log: baseLog.With("repo", "ProgramRepo"),
	}
}

func (r *programRepo) Create(dbc dbctx.Context, programs []*types.Program) ([]*types.Program, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(programs) == 0 {
		return []*types.Program{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Program, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Program
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

func (r *programRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Program, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if slug == "" {
		return nil, nil
	}
	var p types.Program
	err := transaction.WithContext(dbc.Ctx).
		Where("slug = ?", slug).
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

func (r *programRepo) List(dbc dbctx.Context) ([]*types.Program, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Program
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
