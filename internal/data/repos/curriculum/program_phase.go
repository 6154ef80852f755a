package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type ProgramPhaseRepo interface {
	Create(dbc dbctx.Context, phases []*types.ProgramPhase) ([]*types.ProgramPhase, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgramPhase, error)
	ListByProgram(dbc dbctx.Context, programID uuid.UUID) ([]*types.ProgramPhase, error)
}

type programPhaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramPhaseRepo(db *gorm.DB, baseLog *logger.Logger) ProgramPhaseRepo {
	return &programPhaseRepo{
		db:  db,
		log: baseLog.With("repo", "ProgramPhaseRepo"),
	}
}

func (r *programPhaseRepo) Create(dbc dbctx.Context, phases []*types.ProgramPhase) ([]*types.ProgramPhase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(phases) == 0 {
		return []*types.ProgramPhase{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&phases).Error; err != nil {
		return nil, err
	}
	return phases, nil
}

func (r *programPhaseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgramPhase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.ProgramPhase
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

func (r *programPhaseRepo) ListByProgram(dbc dbctx.Context, programID uuid.UUID) ([]*types.ProgramPhase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProgramPhase
	if programID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("program_id = ?", programID).
		Order("index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
