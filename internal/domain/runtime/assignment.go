package runtime

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentPaused    AssignmentStatus = "paused"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentAbandoned AssignmentStatus = "abandoned"
	AssignmentExpired   AssignmentStatus = "expired"
)

// IsTerminal reports whether the status permits no further mutation.
func (s AssignmentStatus) IsTerminal() bool {
	switch s {
	case AssignmentCompleted, AssignmentAbandoned, AssignmentExpired:
		return true
	default:
		return false
	}
}

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentActive, AssignmentPaused, AssignmentCompleted, AssignmentAbandoned, AssignmentExpired:
		return true
	default:
		return false
	}
}

type AssignmentSlot string

const (
	SlotPrimary   AssignmentSlot = "primary"
	SlotSecondary AssignmentSlot = "secondary"
)

func (s AssignmentSlot) IsValid() bool {
	return s == SlotPrimary || s == SlotSecondary
}

// Assignment binds one user to one protocol in one slot. The week/day
// pointer is always re-derivable from start_at and the protocol length;
// the stored columns exist for querying and for skip accounting between
// ticks. Version is the optimistic-lock counter for all pointer writes.
type Assignment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_assignment_user_slot,priority:1" json:"user_id"`
	ProtocolID uuid.UUID `gorm:"type:uuid;not null;index" json:"protocol_id"`

	Slot AssignmentSlot `gorm:"column:slot;type:text;not null;default:'primary';index:idx_assignment_user_slot,priority:2" json:"slot"`

	Status AssignmentStatus `gorm:"column:status;type:text;not null;default:'active';index" json:"status"`

	// StartAt is nil until the assignment is begun; the clock then reports
	// week 1 / day 1.
	StartAt *time.Time `gorm:"column:start_at" json:"start_at,omitempty"`

	CurrentWeek int `gorm:"column:current_week;not null;default:1" json:"current_week"`
	CurrentDay  int `gorm:"column:current_day;not null;default:1" json:"current_day"`
	AbsoluteDay int `gorm:"column:absolute_day;not null;default:1" json:"absolute_day"`

	DaysCompleted int `gorm:"column:days_completed;not null;default:0" json:"days_completed"`
	DaysSkipped   int `gorm:"column:days_skipped;not null;default:0" json:"days_skipped"`

	PausedAt    *time.Time `gorm:"column:paused_at" json:"paused_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assignment) TableName() string { return "assignment" }

// BeforeCreate assigns the id when the caller did not pick one.
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
