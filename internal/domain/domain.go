package domain

import (
	"github.com/mioplatform/mio-backend/internal/domain/curriculum"
	"github.com/mioplatform/mio-backend/internal/domain/events"
	"github.com/mioplatform/mio-backend/internal/domain/runtime"
	"github.com/mioplatform/mio-backend/internal/domain/user"
)

type User = user.User

type Protocol = curriculum.Protocol
type ProtocolTask = curriculum.ProtocolTask
type Program = curriculum.Program
type ProgramPhase = curriculum.ProgramPhase
type Lesson = curriculum.Lesson
type Tactic = curriculum.Tactic

type Assignment = runtime.Assignment
type AssignmentStatus = runtime.AssignmentStatus
type AssignmentSlot = runtime.AssignmentSlot
type TacticProgress = runtime.TacticProgress
type CompletionRecord = runtime.CompletionRecord
type CompletionKind = runtime.CompletionKind

type LifecycleEvent = events.LifecycleEvent
type EventType = events.EventType
type EventOutcome = events.EventOutcome

const (
	AssignmentActive    = runtime.AssignmentActive
	AssignmentPaused    = runtime.AssignmentPaused
	AssignmentCompleted = runtime.AssignmentCompleted
	AssignmentAbandoned = runtime.AssignmentAbandoned
	AssignmentExpired   = runtime.AssignmentExpired

	SlotPrimary   = runtime.SlotPrimary
	SlotSecondary = runtime.SlotSecondary

	CompletionDone    = runtime.CompletionDone
	CompletionSkipped = runtime.CompletionSkipped

	EventStuckDetected        = events.EventStuckDetected
	EventNudgeSent            = events.EventNudgeSent
	EventNudgeResponded       = events.EventNudgeResponded
	EventCompletionGateFailed = events.EventCompletionGateFailed
	EventCompletionGatePassed = events.EventCompletionGatePassed
	EventCoachIntervention    = events.EventCoachIntervention
	EventEscalationTriggered  = events.EventEscalationTriggered
	EventUserReengaged        = events.EventUserReengaged
	EventProtocolAdvanced     = events.EventProtocolAdvanced
	EventProtocolCompleted    = events.EventProtocolCompleted
	EventSystemCheck          = events.EventSystemCheck

	OutcomePending    = events.OutcomePending
	OutcomeSuccess    = events.OutcomeSuccess
	OutcomePartial    = events.OutcomePartial
	OutcomeFailed     = events.OutcomeFailed
	OutcomeNoResponse = events.OutcomeNoResponse
	OutcomeExpired    = events.OutcomeExpired
)
