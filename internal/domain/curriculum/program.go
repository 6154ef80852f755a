package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Program is the top of the tactic hierarchy: program -> phase -> lesson -> tactic.
type Program struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Slug  string `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title string `gorm:"column:title;not null" json:"title"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Program) TableName() string { return "program" }

type ProgramPhase struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ProgramID uuid.UUID `gorm:"type:uuid;not null;index" json:"program_id"`
	Program   *Program  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProgramID;references:ID" json:"program,omitempty"`

	Index    int    `gorm:"column:index;not null;default:0" json:"index"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Required bool   `gorm:"column:required;not null;default:true" json:"required"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProgramPhase) TableName() string { return "program_phase" }

func (p *Program) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *ProgramPhase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
