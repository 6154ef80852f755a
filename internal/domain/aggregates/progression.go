package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
)

var ProgressionAggregateContract = Contract{
	Name:             "Progression.ProgressionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns atomic state transitions across assignment/tactic_progress/completion_record " +
		"and the lifecycle events those transitions emit.",
}

// ProgressionAggregate owns assignment and unit-progress transition invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type ProgressionAggregate interface {
	Aggregate

	// Enroll creates an assignment in the requested slot atomically,
	// rejecting a second active assignment for the same (user, slot).
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)

	// RecordCompletion upserts the write-once completion fact for one leaf
	// and, when the leaf closes the protocol's final day, settles the
	// assignment as completed in the same transaction.
	RecordCompletion(ctx context.Context, in RecordCompletionInput) (RecordCompletionResult, error)

	// ApplySignal merges raw unit signals, re-evaluates gates, and rolls
	// derived progress up the curriculum under optimistic locking.
	ApplySignal(ctx context.Context, in ApplySignalInput) (ApplySignalResult, error)

	// AdvanceAssignment moves one assignment's wall-clock pointer to now,
	// accounting skipped days and emitting advancement events.
	AdvanceAssignment(ctx context.Context, in AdvanceAssignmentInput) (AdvanceAssignmentResult, error)

	// TransitionStatus applies a lifecycle transition (pause, resume,
	// abandon, restart) with full precondition checks.
	TransitionStatus(ctx context.Context, in TransitionStatusInput) (TransitionStatusResult, error)
}

type EnrollInput struct {
	UserID     uuid.UUID
	ProtocolID uuid.UUID
	Slot       types.AssignmentSlot
	StartAt    *time.Time
	EventAt    time.Time
	Metadata   map[string]any
}

type EnrollResult struct {
	Assignment types.Assignment
	Events     []types.LifecycleEvent
}

type RecordCompletionInput struct {
	UserID       uuid.UUID
	AssignmentID uuid.UUID
	TaskID       uuid.UUID
	Kind         types.CompletionKind
	Response     map[string]any
	Notes        string
	Rating       *int
	EventAt      time.Time
}

type RecordCompletionResult struct {
	Record        types.CompletionRecord
	AlreadyExists bool
	DayComplete   bool
	Assignment    types.Assignment
	Events        []types.LifecycleEvent
}

type ApplySignalInput struct {
	UserID   uuid.UUID
	TacticID uuid.UUID

	// Deltas and merges; zero values leave the stored signal untouched.
	VideoWatchPct  *float64
	AttemptDelta   int
	Score          *float64
	StepsCompleted *int

	// Override short-circuits gate evaluation; OverriddenBy must be set.
	Override     bool
	OverriddenBy *uuid.UUID

	EventAt time.Time
}

type ApplySignalResult struct {
	Progress     types.TacticProgress
	GatesCrossed bool
	Events       []types.LifecycleEvent
}

type AdvanceAssignmentInput struct {
	AssignmentID uuid.UUID
	Now          time.Time
}

type AdvanceAssignmentResult struct {
	Assignment types.Assignment
	Moved      bool
	SkipDelta  int
	PastEnd    bool
	Events     []types.LifecycleEvent
}

type TransitionStatusInput struct {
	AssignmentID uuid.UUID
	Target       types.AssignmentStatus
	Reason       string
	ActorID      uuid.UUID
	EventAt      time.Time
}

type TransitionStatusResult struct {
	Assignment types.Assignment
	Events     []types.LifecycleEvent
}
