package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

// The event enumeration is closed; consumers rely on it for routing.
const (
	EventStuckDetected        EventType = "stuck_detected"
	EventNudgeSent            EventType = "nudge_sent"
	EventNudgeResponded       EventType = "nudge_responded"
	EventCompletionGateFailed EventType = "completion_gate_failed"
	EventCompletionGatePassed EventType = "completion_gate_passed"
	EventCoachIntervention    EventType = "coach_intervention"
	EventEscalationTriggered  EventType = "escalation_triggered"
	EventUserReengaged        EventType = "user_reengaged"
	EventProtocolAdvanced     EventType = "protocol_advanced"
	EventProtocolCompleted    EventType = "protocol_completed"
	EventSystemCheck          EventType = "system_check"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventStuckDetected, EventNudgeSent, EventNudgeResponded,
		EventCompletionGateFailed, EventCompletionGatePassed,
		EventCoachIntervention, EventEscalationTriggered, EventUserReengaged,
		EventProtocolAdvanced, EventProtocolCompleted, EventSystemCheck:
		return true
	default:
		return false
	}
}

type EventOutcome string

const (
	OutcomePending    EventOutcome = "pending"
	OutcomeSuccess    EventOutcome = "success"
	OutcomePartial    EventOutcome = "partial"
	OutcomeFailed     EventOutcome = "failed"
	OutcomeNoResponse EventOutcome = "no_response"
	OutcomeExpired    EventOutcome = "expired"
)

func (o EventOutcome) IsValid() bool {
	switch o {
	case OutcomePending, OutcomeSuccess, OutcomePartial, OutcomeFailed,
		OutcomeNoResponse, OutcomeExpired:
		return true
	default:
		return false
	}
}

// LifecycleEvent is the append-only transition fact consumed by external
// collaborators (notifications, coach dashboards, stuck detection). Rows are
// write-once except for the outcome fields, which a consumer settles later.
type LifecycleEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EventType EventType `gorm:"column:event_type;type:text;not null;index" json:"event_type"`

	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	AssignmentID *uuid.UUID `gorm:"type:uuid;index" json:"assignment_id,omitempty"`
	TacticID     *uuid.UUID `gorm:"type:uuid;index" json:"tactic_id,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`

	Outcome   EventOutcome `gorm:"column:outcome;type:text;not null;default:'pending';index" json:"outcome"`
	OutcomeAt *time.Time   `gorm:"column:outcome_at" json:"outcome_at,omitempty"`

	EmittedAt time.Time `gorm:"column:emitted_at;not null;index" json:"emitted_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LifecycleEvent) TableName() string { return "lifecycle_event" }

func (e *LifecycleEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
