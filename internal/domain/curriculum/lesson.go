package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PhaseID uuid.UUID     `gorm:"type:uuid;not null;index" json:"phase_id"`
	Phase   *ProgramPhase `gorm:"constraint:OnDelete:CASCADE;foreignKey:PhaseID;references:ID" json:"phase,omitempty"`

	Index    int    `gorm:"column:index;not null;default:0" json:"index"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Required bool   `gorm:"column:required;not null;default:true" json:"required"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
