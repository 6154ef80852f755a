package runtime

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TacticProgress is the per-(user, tactic) unit progress record. Raw signals
// are the source of truth; every derived column is recomputed from them on
// write, never trusted from the caller.
type TacticProgress struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_tactic_progress_user_tactic,unique,priority:1" json:"user_id"`
	TacticID uuid.UUID `gorm:"type:uuid;not null;index:idx_tactic_progress_user_tactic,unique,priority:2" json:"tactic_id"`

	// Raw signals. Watch percentage and best score are monotonic merges;
	// attempt count only grows.
	VideoWatchPct  float64 `gorm:"column:video_watch_pct;not null;default:0" json:"video_watch_pct"`
	AttemptCount   int     `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	BestScore      float64 `gorm:"column:best_score;not null;default:0" json:"best_score"`
	StepsCompleted int     `gorm:"column:steps_completed;not null;default:0" json:"steps_completed"`

	// Gates holds per-gate derived state keyed by gate name:
	// {"require_video":{"satisfied":true,"first_satisfied_at":"..."}}.
	// First-satisfied timestamps are carried forward, never cleared.
	Gates datatypes.JSON `gorm:"column:gates;type:jsonb" json:"gates,omitempty"`

	AllGatesMet   bool       `gorm:"column:all_gates_met;not null;default:false" json:"all_gates_met"`
	AllGatesMetAt *time.Time `gorm:"column:all_gates_met_at" json:"all_gates_met_at,omitempty"`

	ProgressPct float64 `gorm:"column:progress_pct;not null;default:0" json:"progress_pct"`

	// OverriddenBy records the coach who force-passed the gates, when any.
	OverriddenBy *uuid.UUID `gorm:"type:uuid;column:overridden_by" json:"overridden_by,omitempty"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TacticProgress) TableName() string { return "tactic_progress" }

func (p *TacticProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
