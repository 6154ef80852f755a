package runtime

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CompletionKind string

const (
	CompletionDone    CompletionKind = "completed"
	CompletionSkipped CompletionKind = "skipped"
)

// CompletionRecord is the append-only fact that a leaf task was completed
// (or explicitly skipped) within an assignment. The unique index makes the
// fact write-once; later reports for the same leaf may update notes and
// rating but never completed_at or kind.
type CompletionRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AssignmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_assignment_task,unique,priority:1" json:"assignment_id"`
	TaskID       uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_assignment_task,unique,priority:2" json:"task_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Kind CompletionKind `gorm:"column:kind;type:text;not null;default:'completed'" json:"kind"`

	Response datatypes.JSON `gorm:"column:response;type:jsonb" json:"response,omitempty"`
	Notes    string         `gorm:"column:notes" json:"notes,omitempty"`
	Rating   *int           `gorm:"column:rating" json:"rating,omitempty"`

	CompletedAt time.Time `gorm:"column:completed_at;not null;index" json:"completed_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompletionRecord) TableName() string { return "completion_record" }

func (r *CompletionRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
