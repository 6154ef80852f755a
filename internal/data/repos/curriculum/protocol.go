package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type ProtocolRepo interface {
	Create(dbc dbctx.Context, protocols []*types.Protocol) ([]*types.Protocol, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Protocol, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Protocol, error)
	List(dbc dbctx.Context) ([]*types.Protocol, error)
}

type protocolRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProtocolRepo(db *gorm.DB, baseLog *logger.Logger) ProtocolRepo {
	return &protocolRepo{
		db:  db,
		log: baseLog.With("repo", "ProtocolRepo"),
	}
}

func (r *protocolRepo) Create(dbc dbctx.Context, protocols []*types.Protocol) ([]*types.Protocol, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(protocols) == 0 {
		return []*types.Protocol{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&protocols).Error; err != nil {
		return nil, err
	}
	return protocols, nil
}

func (r *protocolRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Protocol, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Protocol
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

func (r *protocolRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Protocol, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if slug == "" {
		return nil, nil
	}
	var p types.Protocol
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

func (r *protocolRepo) List(dbc dbctx.Context) ([]*types.Protocol, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Protocol
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
