package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	curriculumrepo "github.com/mioplatform/mio-backend/internal/data/repos/curriculum"
	progressionrepo "github.com/mioplatform/mio-backend/internal/data/repos/progression"
	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/observability"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/progression/gates"
	"github.com/mioplatform/mio-backend/internal/progression/rollup"
	"github.com/mioplatform/mio-backend/internal/progression/schedule"
)

// stuckSkipThreshold is the auto-skip delta in one tick that flags an
// assignment as stuck.
const stuckSkipThreshold = 3

const (
	minProtocolWeeks = 1
	maxProtocolWeeks = 52
)

// Reason codes surfaced inside precondition errors so callers can explain
// rejections.
const (
	ReasonSlotOccupied        = "slot_occupied"
	ReasonAssignmentNotActive = "assignment_not_active"
	ReasonNotPausable         = "not_pausable"
	ReasonNotResumable        = "not_resumable"
	ReasonNotRestartable      = "not_restartable"
)

type ProgressionAggregateDeps struct {
	Base BaseDeps

	Assignments progressionrepo.AssignmentRepo
	Progress    progressionrepo.TacticProgressRepo
	Completions progressionrepo.CompletionRecordRepo
	Events      progressionrepo.LifecycleEventRepo

	Protocols curriculumrepo.ProtocolRepo
	Tasks     curriculumrepo.ProtocolTaskRepo
	Tactics   curriculumrepo.TacticRepo
}

type progressionAggregate struct {
	deps ProgressionAggregateDeps
}

func NewProgressionAggregate(deps ProgressionAggregateDeps) domainagg.ProgressionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &progressionAggregate{deps: deps}
}

func (a *progressionAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressionAggregateContract
}

func (a *progressionAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "progression.enroll"
	var out domainagg.EnrollResult

	if in.UserID == uuid.Nil || in.ProtocolID == uuid.Nil {
		return out, MapError(op, ValidationError("user and protocol ids are required"))
	}
	slot := in.Slot
	if slot == "" {
		slot = types.SlotPrimary
	}
	if !slot.IsValid() {
		return out, MapError(op, ValidationError("invalid assignment slot"))
	}
	eventAt := in.EventAt
	if eventAt.IsZero() {
		eventAt = time.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		protocol, err := a.deps.Protocols.GetByID(dbc, in.ProtocolID)
		if err != nil {
			return err
		}
		if protocol == nil {
			return ValidationError("unknown protocol")
		}
		if protocol.TotalWeeks < minProtocolWeeks || protocol.TotalWeeks > maxProtocolWeeks {
			return InvariantError("protocol total_weeks out of range")
		}

		occupied, err := a.deps.Assignments.GetActiveByUserSlot(dbc, in.UserID, slot)
		if err != nil {
			return err
		}
		if occupied != nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonSlotOccupied, nil)
		}

		startAt := in.StartAt
		if startAt == nil {
			at := eventAt
			startAt = &at
		}
		pos := schedule.Compute(startAt, eventAt, protocol.TotalWeeks)

		assignment := &types.Assignment{
			ID:          uuid.New(),
			UserID:      in.UserID,
			ProtocolID:  in.ProtocolID,
			Slot:        slot,
			Status:      types.AssignmentActive,
			StartAt:     startAt,
			CurrentWeek: pos.Week,
			CurrentDay:  pos.Day,
			AbsoluteDay: pos.AbsoluteDay,
		}
		if len(in.Metadata) > 0 {
			raw, mErr := json.Marshal(in.Metadata)
			if mErr != nil {
				return ValidationError("metadata is not serializable")
			}
			assignment.Metadata = datatypes.JSON(raw)
		}
		if _, err := a.deps.Assignments.Create(dbc, []*types.Assignment{assignment}); err != nil {
			// A concurrent enroll that slipped past the read hits the
			// partial unique index instead.
			if domainagg.IsCode(MapError(op, err), domainagg.CodeConflict) {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonSlotOccupied, err)
			}
			return err
		}

		ev, err := a.emit(dbc, types.EventProtocolAdvanced, in.UserID, &assignment.ID, nil, eventAt, map[string]any{
			"reason": "enrolled",
			"week":   pos.Week,
			"day":    pos.Day,
		})
		if err != nil {
			return err
		}

		out.Assignment = *assignment
		out.Events = append(out.Events, *ev)
		return nil
	})
	return out, err
}

func (a *progressionAggregate) RecordCompletion(ctx context.Context, in domainagg.RecordCompletionInput) (domainagg.RecordCompletionResult, error) {
	const op = "progression.record_completion"
	var out domainagg.RecordCompletionResult

	if in.UserID == uuid.Nil || in.AssignmentID == uuid.Nil || in.TaskID == uuid.Nil {
		return out, MapError(op, ValidationError("user, assignment, and task ids are required"))
	}
	kind := in.Kind
	if kind == "" {
		kind = types.CompletionDone
	}
	if kind != types.CompletionDone && kind != types.CompletionSkipped {
		return out, MapError(op, ValidationError("invalid completion kind"))
	}
	eventAt := in.EventAt
	if eventAt.IsZero() {
		eventAt = time.Now()
	}

	err := executeWriteWithCASRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.RecordCompletionResult{}

		assignment, err := a.deps.Assignments.GetByID(dbc, in.AssignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
		}
		if assignment.UserID != in.UserID {
			return domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
		}
		if assignment.Status != types.AssignmentActive {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonAssignmentNotActive, nil)
		}

		task, err := a.deps.Tasks.GetByID(dbc, in.TaskID)
		if err != nil {
			return err
		}
		if task == nil || task.ProtocolID != assignment.ProtocolID {
			return ValidationError("unknown task for this assignment")
		}

		existing, err := a.deps.Completions.GetByAssignmentTask(dbc, in.AssignmentID, in.TaskID)
		if err != nil {
			return err
		}
		if existing != nil {
			// The fact is write-once; a repeat only refreshes metadata.
			updates := map[string]any{}
			if in.Notes != "" {
				updates["notes"] = in.Notes
			}
			if in.Rating != nil {
				updates["rating"] = *in.Rating
			}
			if len(in.Response) > 0 {
				raw, mErr := json.Marshal(in.Response)
				if mErr != nil {
					return ValidationError("response is not serializable")
				}
				updates["response"] = datatypes.JSON(raw)
			}
			if len(updates) > 0 {
				if err := a.deps.Completions.UpdateFields(dbc, existing.ID, updates); err != nil {
					return err
				}
				refreshed, gErr := a.deps.Completions.GetByAssignmentTask(dbc, in.AssignmentID, in.TaskID)
				if gErr != nil {
					return gErr
				}
				existing = refreshed
			}
			out.Record = *existing
			out.AlreadyExists = true
			out.Assignment = *assignment
			return nil
		}

		record := &types.CompletionRecord{
			ID:           uuid.New(),
			AssignmentID: in.AssignmentID,
			TaskID:       in.TaskID,
			UserID:       in.UserID,
			Kind:         kind,
			Notes:        in.Notes,
			Rating:       in.Rating,
			CompletedAt:  eventAt,
		}
		if len(in.Response) > 0 {
			raw, mErr := json.Marshal(in.Response)
			if mErr != nil {
				return ValidationError("response is not serializable")
			}
			record.Response = datatypes.JSON(raw)
		}
		if _, err := a.deps.Completions.Create(dbc, []*types.CompletionRecord{record}); err != nil {
			return err
		}

		dayComplete, err := a.dayComplete(dbc, assignment, task.Week, task.Day)
		if err != nil {
			return err
		}

		updates := map[string]any{"version": assignment.Version + 1}
		if dayComplete {
			updates["days_completed"] = assignment.DaysCompleted + 1
		}

		protocol, err := a.deps.Protocols.GetByID(dbc, assignment.ProtocolID)
		if err != nil {
			return err
		}
		if protocol == nil {
			return InvariantError("assignment references missing protocol")
		}

		finalDay := dayComplete && task.Week == protocol.TotalWeeks && task.Day == 7
		if finalDay {
			updates["status"] = types.AssignmentCompleted
			updates["completed_at"] = eventAt
		}

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, types.Assignment{}.TableName(), assignment.ID, assignment.Version, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "assignment version conflict"); err != nil {
			return err
		}

		if finalDay {
			ev, eErr := a.emit(dbc, types.EventProtocolCompleted, in.UserID, &assignment.ID, nil, eventAt, map[string]any{
				"reason": "final_day_completed",
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)
			assignment.Status = types.AssignmentCompleted
			assignment.CompletedAt = &eventAt
		}
		if dayComplete {
			assignment.DaysCompleted++
		}
		assignment.Version++

		out.Record = *record
		out.DayComplete = dayComplete
		out.Assignment = *assignment
		return nil
	})
	return out, err
}

// dayComplete reports whether every required task of (week, day) now has a
// done completion record, including the one written in this transaction.
func (a *progressionAggregate) dayComplete(dbc dbctx.Context, assignment *types.Assignment, week, day int) (bool, error) {
	tasks, err := a.deps.Tasks.ListForDay(dbc, assignment.ProtocolID, week, day)
	if err != nil {
		return false, err
	}
	var requiredIDs []uuid.UUID
	for _, t := range tasks {
		if t.Required {
			requiredIDs = append(requiredIDs, t.ID)
		}
	}
	if len(requiredIDs) == 0 {
		return false, nil
	}
	done, err := a.deps.Completions.CountByAssignmentTasks(dbc, assignment.ID, requiredIDs)
	if err != nil {
		return false, err
	}
	return done == int64(len(requiredIDs)), nil
}

func (a *progressionAggregate) ApplySignal(ctx context.Context, in domainagg.ApplySignalInput) (domainagg.ApplySignalResult, error) {
	const op = "progression.apply_signal"
	var out domainagg.ApplySignalResult

	if in.UserID == uuid.Nil || in.TacticID == uuid.Nil {
		return out, MapError(op, ValidationError("user and tactic ids are required"))
	}
	if in.VideoWatchPct != nil && (*in.VideoWatchPct < 0 || *in.VideoWatchPct > 100) {
		return out, MapError(op, ValidationError("video watch percentage must be within 0-100"))
	}
	if in.AttemptDelta < 0 {
		return out, MapError(op, ValidationError("attempt delta must not be negative"))
	}
	if in.Override && (in.OverriddenBy == nil || *in.OverriddenBy == uuid.Nil) {
		return out, MapError(op, ValidationError("override requires an overriding actor"))
	}
	eventAt := in.EventAt
	if eventAt.IsZero() {
		eventAt = time.Now()
	}

	err := executeWriteWithCASRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ApplySignalResult{}

		tactic, err := a.deps.Tactics.GetByID(dbc, in.TacticID)
		if err != nil {
			return err
		}
		if tactic == nil {
			return ValidationError("unknown tactic")
		}
		specs, err := gates.ParseConfig(tactic.GateConfig)
		if err != nil {
			return InvariantError(fmt.Sprintf("bad gate config: %v", err))
		}
		hasRequired := false
		for _, s := range specs {
			if s.Required {
				hasRequired = true
				break
			}
		}

		record, err := a.deps.Progress.GetByUserTactic(dbc, in.UserID, in.TacticID)
		if err != nil {
			return err
		}
		created := false
		if record == nil {
			record = &types.TacticProgress{
				ID:       uuid.New(),
				UserID:   in.UserID,
				TacticID: in.TacticID,
			}
			created = true
		}
		prev := *record

		// Merge raw signals monotonically; derived state is recomputed
		// from them, never taken from the caller.
		if in.VideoWatchPct != nil && *in.VideoWatchPct > record.VideoWatchPct {
			record.VideoWatchPct = *in.VideoWatchPct
		}
		record.AttemptCount += in.AttemptDelta
		if in.Score != nil && *in.Score > record.BestScore {
			record.BestScore = *in.Score
		}
		if in.StepsCompleted != nil && *in.StepsCompleted > record.StepsCompleted {
			record.StepsCompleted = *in.StepsCompleted
		}

		prior := map[string]gates.State{}
		if len(record.Gates) > 0 {
			if err := json.Unmarshal(record.Gates, &prior); err != nil {
				return InvariantError("stored gate state is unreadable")
			}
		}

		sig := gates.Signals{
			VideoWatchPct:  record.VideoWatchPct,
			AttemptCount:   record.AttemptCount,
			BestScore:      record.BestScore,
			StepsCompleted: record.StepsCompleted,
			TotalSteps:     tactic.TotalSteps,
		}

		var result gates.Result
		if in.Override {
			result = gates.ForcePass(specs, prior, eventAt)
			record.OverriddenBy = in.OverriddenBy
		} else {
			result = gates.Evaluate(specs, sig, prior, eventAt)
		}
		for name, st := range result.States {
			observability.Current().IncGateDecision(name, st.Satisfied)
		}

		// A config with no required gates is vacuously "all met" on every
		// evaluation; only a coach override may settle such a unit.
		settled := result.AllMet && (hasRequired || in.Override)

		wasMet := record.AllGatesMet
		crossed := !wasMet && settled

		gatesJSON, mErr := json.Marshal(result.States)
		if mErr != nil {
			return InvariantError("gate state is not serializable")
		}
		record.Gates = datatypes.JSON(gatesJSON)
		// AllGatesMet is monotonic; an earlier true wins over any recompute.
		record.AllGatesMet = wasMet || settled
		if crossed {
			record.AllGatesMetAt = &eventAt
		}
		record.ProgressPct = result.ProgressPct
		if record.AllGatesMet && record.ProgressPct < 100 {
			record.ProgressPct = 100
		}

		// A signal that moved nothing persists nothing: no version bump,
		// no events, and callers rolling percentages up the hierarchy can
		// stop at the first unchanged level.
		if !created && !crossed && !in.Override &&
			record.VideoWatchPct == prev.VideoWatchPct &&
			record.AttemptCount == prev.AttemptCount &&
			record.BestScore == prev.BestScore &&
			record.StepsCompleted == prev.StepsCompleted &&
			record.AllGatesMet == prev.AllGatesMet &&
			!rollup.Changed(prev.ProgressPct, record.ProgressPct) {
			out.Progress = *record
			return nil
		}

		if created {
			if _, err := a.deps.Progress.Create(dbc, []*types.TacticProgress{record}); err != nil {
				return err
			}
		} else {
			updates := map[string]any{
				"video_watch_pct": record.VideoWatchPct,
				"attempt_count":   record.AttemptCount,
				"best_score":      record.BestScore,
				"steps_completed": record.StepsCompleted,
				"gates":           record.Gates,
				"all_gates_met":   record.AllGatesMet,
				"progress_pct":    record.ProgressPct,
				"version":         record.Version + 1,
			}
			if crossed {
				updates["all_gates_met_at"] = eventAt
			}
			if in.Override {
				updates["overridden_by"] = *in.OverriddenBy
			}
			ok, uErr := a.deps.Base.CASGuard.UpdateByVersion(dbc, types.TacticProgress{}.TableName(), record.ID, record.Version, updates)
			if uErr != nil {
				return uErr
			}
			if err := RequireCASSuccess(ok, "tactic progress version conflict"); err != nil {
				return err
			}
			record.Version++
		}

		// Every successful override is audited, even when the gates were
		// already met and nothing crossed.
		if in.Override {
			ev, eErr := a.emit(dbc, types.EventCoachIntervention, in.UserID, nil, &in.TacticID, eventAt, map[string]any{
				"overridden_by": in.OverriddenBy.String(),
				"progress_pct":  record.ProgressPct,
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)
		}

		if crossed {
			ev, eErr := a.emit(dbc, types.EventCompletionGatePassed, in.UserID, nil, &in.TacticID, eventAt, map[string]any{
				"progress_pct": record.ProgressPct,
				"overridden":   in.Override,
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)
		} else if in.AttemptDelta > 0 && !record.AllGatesMet {
			ev, eErr := a.emit(dbc, types.EventCompletionGateFailed, in.UserID, nil, &in.TacticID, eventAt, map[string]any{
				"best_score": record.BestScore,
				"attempts":   record.AttemptCount,
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)
		}

		out.Progress = *record
		out.GatesCrossed = crossed
		return nil
	})
	return out, err
}

func (a *progressionAggregate) AdvanceAssignment(ctx context.Context, in domainagg.AdvanceAssignmentInput) (domainagg.AdvanceAssignmentResult, error) {
	const op = "progression.advance"
	var out domainagg.AdvanceAssignmentResult

	if in.AssignmentID == uuid.Nil {
		return out, MapError(op, ValidationError("assignment id is required"))
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	err := executeWriteWithCASRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.AdvanceAssignmentResult{}

		assignment, err := a.deps.Assignments.GetByID(dbc, in.AssignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
		}
		if assignment.Status != types.AssignmentActive {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonAssignmentNotActive, nil)
		}

		protocol, err := a.deps.Protocols.GetByID(dbc, assignment.ProtocolID)
		if err != nil {
			return err
		}
		if protocol == nil {
			return InvariantError("assignment references missing protocol")
		}

		pos := schedule.Compute(assignment.StartAt, now, protocol.TotalWeeks)

		if pos.PastEnd {
			updates := map[string]any{
				"status":       types.AssignmentCompleted,
				"current_week": pos.Week,
				"current_day":  pos.Day,
				"absolute_day": pos.AbsoluteDay,
				"completed_at": now,
				"version":      assignment.Version + 1,
			}
			ok, uErr := a.deps.Base.CASGuard.UpdateByVersion(dbc, types.Assignment{}.TableName(), assignment.ID, assignment.Version, updates)
			if uErr != nil {
				return uErr
			}
			if err := RequireCASSuccess(ok, "assignment version conflict"); err != nil {
				return err
			}

			ev, eErr := a.emit(dbc, types.EventProtocolCompleted, assignment.UserID, &assignment.ID, nil, now, map[string]any{
				"reason": "past_end",
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)

			assignment.Status = types.AssignmentCompleted
			assignment.CurrentWeek = pos.Week
			assignment.CurrentDay = pos.Day
			assignment.AbsoluteDay = pos.AbsoluteDay
			assignment.CompletedAt = &now
			assignment.Version++

			out.Assignment = *assignment
			out.Moved = true
			out.PastEnd = true
			return nil
		}

		// Re-running a partially applied tick is a no-op: the pointer is
		// derived from start_at, not incremented.
		if pos.AbsoluteDay == assignment.AbsoluteDay {
			out.Assignment = *assignment
			return nil
		}

		skip := schedule.SkipDelta(assignment.AbsoluteDay, pos.AbsoluteDay)
		updates := map[string]any{
			"current_week": pos.Week,
			"current_day":  pos.Day,
			"absolute_day": pos.AbsoluteDay,
			"days_skipped": assignment.DaysSkipped + skip,
			"version":      assignment.Version + 1,
		}
		ok, uErr := a.deps.Base.CASGuard.UpdateByVersion(dbc, types.Assignment{}.TableName(), assignment.ID, assignment.Version, updates)
		if uErr != nil {
			return uErr
		}
		if err := RequireCASSuccess(ok, "assignment version conflict"); err != nil {
			return err
		}

		ev, eErr := a.emit(dbc, types.EventProtocolAdvanced, assignment.UserID, &assignment.ID, nil, now, map[string]any{
			"week":       pos.Week,
			"day":        pos.Day,
			"skip_delta": skip,
		})
		if eErr != nil {
			return eErr
		}
		out.Events = append(out.Events, *ev)

		if skip >= stuckSkipThreshold {
			stuck, sErr := a.emit(dbc, types.EventStuckDetected, assignment.UserID, &assignment.ID, nil, now, map[string]any{
				"skip_delta":   skip,
				"days_skipped": assignment.DaysSkipped + skip,
			})
			if sErr != nil {
				return sErr
			}
			out.Events = append(out.Events, *stuck)
		}

		assignment.CurrentWeek = pos.Week
		assignment.CurrentDay = pos.Day
		assignment.AbsoluteDay = pos.AbsoluteDay
		assignment.DaysSkipped += skip
		assignment.Version++

		out.Assignment = *assignment
		out.Moved = true
		out.SkipDelta = skip
		return nil
	})
	return out, err
}

func (a *progressionAggregate) TransitionStatus(ctx context.Context, in domainagg.TransitionStatusInput) (domainagg.TransitionStatusResult, error) {
	const op = "progression.transition"
	var out domainagg.TransitionStatusResult

	if in.AssignmentID == uuid.Nil {
		return out, MapError(op, ValidationError("assignment id is required"))
	}
	if !in.Target.IsValid() {
		return out, MapError(op, ValidationError("invalid target status"))
	}
	eventAt := in.EventAt
	if eventAt.IsZero() {
		eventAt = time.Now()
	}

	err := executeWriteWithCASRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.TransitionStatusResult{}

		assignment, err := a.deps.Assignments.GetByID(dbc, in.AssignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
		}

		updates := map[string]any{
			"status":  in.Target,
			"version": assignment.Version + 1,
		}
		var emitType types.EventType

		switch in.Target {
		case types.AssignmentPaused:
			if assignment.Status != types.AssignmentActive {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonNotPausable, nil)
			}
			updates["paused_at"] = eventAt
			assignment.PausedAt = &eventAt

		case types.AssignmentActive:
			switch assignment.Status {
			case types.AssignmentPaused:
				// Resume: paused time does not count against the clock.
				if assignment.StartAt != nil && assignment.PausedAt != nil {
					shifted := schedule.ShiftForPause(*assignment.StartAt, *assignment.PausedAt, eventAt)
					updates["start_at"] = shifted
					assignment.StartAt = &shifted
				}
				updates["paused_at"] = nil
				assignment.PausedAt = nil
				emitType = types.EventUserReengaged
			case types.AssignmentCompleted, types.AssignmentAbandoned, types.AssignmentExpired:
				// Restart: fresh clock, fresh counters.
				updates["start_at"] = eventAt
				updates["current_week"] = 1
				updates["current_day"] = 1
				updates["absolute_day"] = 1
				updates["days_completed"] = 0
				updates["days_skipped"] = 0
				updates["paused_at"] = nil
				updates["completed_at"] = nil
				assignment.StartAt = &eventAt
				assignment.CurrentWeek = 1
				assignment.CurrentDay = 1
				assignment.AbsoluteDay = 1
				assignment.DaysCompleted = 0
				assignment.DaysSkipped = 0
				assignment.PausedAt = nil
				assignment.CompletedAt = nil
				emitType = types.EventUserReengaged
			default:
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonNotResumable, nil)
			}

		case types.AssignmentAbandoned:
			if assignment.Status.IsTerminal() {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonAssignmentNotActive, nil)
			}

		case types.AssignmentExpired:
			if assignment.Status.IsTerminal() {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, ReasonAssignmentNotActive, nil)
			}
			emitType = types.EventSystemCheck

		case types.AssignmentCompleted:
			return ValidationError("completion is driven by the clock, not direct transition")
		}

		ok, uErr := a.deps.Base.CASGuard.UpdateByVersion(dbc, types.Assignment{}.TableName(), assignment.ID, assignment.Version, updates)
		if uErr != nil {
			return uErr
		}
		if err := RequireCASSuccess(ok, "assignment version conflict"); err != nil {
			return err
		}
		assignment.Status = in.Target
		assignment.Version++

		if emitType != "" {
			ev, eErr := a.emit(dbc, emitType, assignment.UserID, &assignment.ID, nil, eventAt, map[string]any{
				"transition": string(in.Target),
				"reason":     in.Reason,
			})
			if eErr != nil {
				return eErr
			}
			out.Events = append(out.Events, *ev)
		}

		out.Assignment = *assignment
		return nil
	})
	return out, err
}

func (a *progressionAggregate) emit(dbc dbctx.Context, t types.EventType, userID uuid.UUID, assignmentID, tacticID *uuid.UUID, at time.Time, payload map[string]any) (*types.LifecycleEvent, error) {
	ev := &types.LifecycleEvent{
		ID:           uuid.New(),
		EventType:    t,
		UserID:       userID,
		AssignmentID: assignmentID,
		TacticID:     tacticID,
		Outcome:      types.OutcomePending,
		EmittedAt:    at,
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, InvariantError("event payload is not serializable")
		}
		ev.Payload = datatypes.JSON(raw)
	}
	created, err := a.deps.Events.Create(dbc, []*types.LifecycleEvent{ev})
	if err != nil {
		return nil, err
	}
	observability.Current().IncEventEmitted(string(t))
	return created[0], nil
}
