package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tactic is the leaf of the tactic hierarchy. Its gate configuration is a
// jsonb array of named requirements; the evaluator resolves gate names
// through a strategy registry so new gate kinds need no schema change.
type Tactic struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	LessonID uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	Index    int    `gorm:"column:index;not null;default:0" json:"index"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Required bool   `gorm:"column:required;not null;default:true" json:"required"`

	// TotalSteps enables the step-count completion fallback for tactics
	// without gates. Zero means no step tracking.
	TotalSteps int `gorm:"column:total_steps;not null;default:0" json:"total_steps"`

	// GateConfig holds entries like
	// [{"name":"require_video","required":true,"threshold":80}].
	GateConfig datatypes.JSON `gorm:"column:gate_config;type:jsonb" json:"gate_config,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tactic) TableName() string { return "tactic" }

func (t *Tactic) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
