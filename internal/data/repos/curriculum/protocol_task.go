package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type ProtocolTaskRepo interface {
	Create(dbc dbctx.Context, tasks []*types.ProtocolTask) ([]*types.ProtocolTask, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProtocolTask, error)
	ListByProtocol(dbc dbctx.Context, protocolID uuid.UUID) ([]*types.ProtocolTask, error)
	ListForDay(dbc dbctx.Context, protocolID uuid.UUID, week, day int) ([]*types.ProtocolTask, error)
}

type protocolTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProtocolTaskRepo(db *gorm.DB, baseLog *logger.Logger) ProtocolTaskRepo {
	return &protocolTaskRepo{
		db:  db,
		log: baseLog.With("repo", "ProtocolTaskRepo"),
	}
}

func (r *protocolTaskRepo) Create(dbc dbctx.Context, tasks []*types.ProtocolTask) ([]*types.ProtocolTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tasks) == 0 {
		return []*types.ProtocolTask{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *protocolTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProtocolTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var t types.ProtocolTask
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

func (r *protocolTaskRepo) ListByProtocol(dbc dbctx.Context, protocolID uuid.UUID) ([]*types.ProtocolTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProtocolTask
	if protocolID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("protocol_id = ?", protocolID).
		Order("week ASC, day ASC, sequence ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *protocolTaskRepo) ListForDay(dbc dbctx.Context, protocolID uuid.UUID, week, day int) ([]*types.ProtocolTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProtocolTask
	if protocolID == uuid.Nil || week < 1 || day < 1 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("protocol_id = ? AND week = ? AND day = ?", protocolID, week, day).
		Order("sequence ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
