package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProtocolTask is the leaf daily practice inside a protocol, addressed by
// (week, day, sequence).
type ProtocolTask struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ProtocolID uuid.UUID `gorm:"type:uuid;not null;index:idx_protocol_task_slot,priority:1" json:"protocol_id"`
	Protocol   *Protocol `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProtocolID;references:ID" json:"protocol,omitempty"`

	Week     int `gorm:"column:week;not null;index:idx_protocol_task_slot,priority:2" json:"week"`
	Day      int `gorm:"column:day;not null;index:idx_protocol_task_slot,priority:3" json:"day"`
	Sequence int `gorm:"column:sequence;not null;default:0" json:"sequence"`

	Title string `gorm:"column:title;not null" json:"title"`
	Kind  string `gorm:"column:kind;not null;default:'practice'" json:"kind"`

	// Required tasks count toward day completion; optional ones only add
	// to the response payload history.
	Required bool `gorm:"column:required;not null;default:true" json:"required"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProtocolTask) TableName() string { return "protocol_task" }

func (t *ProtocolTask) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
