package aggregates

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	curriculumrepo "github.com/mioplatform/mio-backend/internal/data/repos/curriculum"
	progressionrepo "github.com/mioplatform/mio-backend/internal/data/repos/progression"
	repotest "github.com/mioplatform/mio-backend/internal/data/repos/testutil"
	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
)

func newTestAggregate(t *testing.T, tx *gorm.DB) domainagg.ProgressionAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewProgressionAggregate(ProgressionAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Assignments: progressionrepo.NewAssignmentRepo(tx, log),
		Progress:    progressionrepo.NewTacticProgressRepo(tx, log),
		Completions: progressionrepo.NewCompletionRecordRepo(tx, log),
		Events:      progressionrepo.NewLifecycleEventRepo(tx, log),
		Protocols:   curriculumrepo.NewProtocolRepo(tx, log),
		Tasks:       curriculumrepo.NewProtocolTaskRepo(tx, log),
		Tactics:     curriculumrepo.NewTacticRepo(tx, log),
	})
}

func TestProgressionAggregateEnrollRejectsOccupiedSlot(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "enroll@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 6)

	first, err := agg.Enroll(ctx, domainagg.EnrollInput{
		UserID:     u.ID,
		ProtocolID: p.ID,
		Slot:       types.SlotPrimary,
	})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if first.Assignment.Status != types.AssignmentActive {
		t.Fatalf("new assignment should be active, got %s", first.Assignment.Status)
	}
	if first.Assignment.CurrentWeek != 1 || first.Assignment.CurrentDay != 1 {
		t.Fatalf("fresh enrollment starts at w1d1, got %+v", first.Assignment)
	}

	_, err = agg.Enroll(ctx, domainagg.EnrollInput{
		UserID:     u.ID,
		ProtocolID: p.ID,
		Slot:       types.SlotPrimary,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("second enrollment in occupied slot: want precondition failure, got %v", err)
	}
	if domainagg.MessageOf(err) != ReasonSlotOccupied {
		t.Fatalf("want reason %q, got %q", ReasonSlotOccupied, domainagg.MessageOf(err))
	}

	// The secondary slot is independent.
	if _, err := agg.Enroll(ctx, domainagg.EnrollInput{
		UserID:     u.ID,
		ProtocolID: p.ID,
		Slot:       types.SlotSecondary,
	}); err != nil {
		t.Fatalf("secondary slot enrollment: %v", err)
	}
}

func TestProgressionAggregateRecordCompletionIdempotent(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "record@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 1)
	t1 := repotest.SeedProtocolTask(t, ctx, tx, p.ID, 1, 1, 0, true)
	t2 := repotest.SeedProtocolTask(t, ctx, tx, p.ID, 1, 1, 1, true)
	start := time.Now().AddDate(0, 0, -1)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	firstAt := time.Now().Add(-time.Hour)
	res, err := agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       u.ID,
		AssignmentID: a.ID,
		TaskID:       t1.ID,
		EventAt:      firstAt,
	})
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if res.AlreadyExists || res.DayComplete {
		t.Fatalf("first of two required tasks: got %+v", res)
	}

	// Replay refreshes metadata but not the fact.
	replay, err := agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       u.ID,
		AssignmentID: a.ID,
		TaskID:       t1.ID,
		Notes:        "felt great",
		EventAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("replay completion: %v", err)
	}
	if !replay.AlreadyExists {
		t.Fatalf("replay must report an existing record")
	}
	if replay.Record.CompletedAt.Sub(firstAt).Abs() > time.Second {
		t.Fatalf("completed_at must not move on replay: %v vs %v", replay.Record.CompletedAt, firstAt)
	}
	if replay.Record.Notes != "felt great" {
		t.Fatalf("notes should refresh, got %q", replay.Record.Notes)
	}

	// Second required task closes the day.
	res, err = agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       u.ID,
		AssignmentID: a.ID,
		TaskID:       t2.ID,
	})
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if !res.DayComplete {
		t.Fatalf("all required tasks done should close the day")
	}
	if res.Assignment.DaysCompleted != 1 {
		t.Fatalf("days_completed: want 1 got %d", res.Assignment.DaysCompleted)
	}
}

func TestProgressionAggregateFinalLeafCompletesAssignment(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "final@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 1)
	task := repotest.SeedProtocolTask(t, ctx, tx, p.ID, 1, 7, 0, true)
	start := time.Now().AddDate(0, 0, -6)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	res, err := agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       u.ID,
		AssignmentID: a.ID,
		TaskID:       task.ID,
	})
	if err != nil {
		t.Fatalf("final completion: %v", err)
	}
	if res.Assignment.Status != types.AssignmentCompleted {
		t.Fatalf("final leaf must settle the assignment, got %s", res.Assignment.Status)
	}
	if res.Assignment.CompletedAt == nil {
		t.Fatalf("completed_at must be set")
	}
	foundCompleted := false
	for _, ev := range res.Events {
		if ev.EventType == types.EventProtocolCompleted {
			foundCompleted = true
		}
	}
	if !foundCompleted {
		t.Fatalf("protocol_completed event expected, got %+v", res.Events)
	}

	// Further mutation is a state conflict, not a no-op.
	_, err = agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
		UserID:       u.ID,
		AssignmentID: a.ID,
		TaskID:       task.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("completed assignment must reject writes, got %v", err)
	}
}

func TestProgressionAggregateApplySignalGateFlow(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "signal@test.dev")
	prog := repotest.SeedProgram(t, ctx, tx)
	phase := repotest.SeedProgramPhase(t, ctx, tx, prog.ID, 0)
	lesson := repotest.SeedLesson(t, ctx, tx, phase.ID, 0)
	tactic := repotest.SeedTactic(t, ctx, tx, lesson.ID, 0,
		`[{"name":"require_video","required":true,"threshold":90},{"name":"require_assessment","required":true,"threshold":70}]`)

	pct := 100.0
	res, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:        u.ID,
		TacticID:      tactic.ID,
		VideoWatchPct: &pct,
	})
	if err != nil {
		t.Fatalf("video signal: %v", err)
	}
	if res.Progress.AllGatesMet {
		t.Fatalf("video alone must not satisfy both gates")
	}
	if res.Progress.ProgressPct != 50 {
		t.Fatalf("progress: want 50 got %v", res.Progress.ProgressPct)
	}

	score := 85.0
	res, err = agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:       u.ID,
		TacticID:     tactic.ID,
		AttemptDelta: 1,
		Score:        &score,
	})
	if err != nil {
		t.Fatalf("assessment signal: %v", err)
	}
	if !res.Progress.AllGatesMet || !res.GatesCrossed {
		t.Fatalf("passing assessment should cross the gates, got %+v", res)
	}
	if res.Progress.ProgressPct != 100 {
		t.Fatalf("progress: want 100 got %v", res.Progress.ProgressPct)
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventCompletionGatePassed {
		t.Fatalf("gate passed event expected, got %+v", res.Events)
	}

	// Weaker replays cannot unsatisfy the gates.
	weak := 10.0
	res, err = agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:        u.ID,
		TacticID:      tactic.ID,
		VideoWatchPct: &weak,
	})
	if err != nil {
		t.Fatalf("weak replay: %v", err)
	}
	if !res.Progress.AllGatesMet {
		t.Fatalf("all_gates_met must be monotonic")
	}
	if res.GatesCrossed {
		t.Fatalf("replay is not a crossing")
	}
	if res.Progress.VideoWatchPct != 100 {
		t.Fatalf("raw watch percentage must not regress, got %v", res.Progress.VideoWatchPct)
	}
}

func TestProgressionAggregateApplySignalFailedAttemptEmitsEvent(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "failed-attempt@test.dev")
	prog := repotest.SeedProgram(t, ctx, tx)
	phase := repotest.SeedProgramPhase(t, ctx, tx, prog.ID, 0)
	lesson := repotest.SeedLesson(t, ctx, tx, phase.ID, 0)
	tactic := repotest.SeedTactic(t, ctx, tx, lesson.ID, 0,
		`[{"name":"require_assessment","required":true,"threshold":70}]`)

	score := 40.0
	res, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:       u.ID,
		TacticID:     tactic.ID,
		AttemptDelta: 1,
		Score:        &score,
	})
	if err != nil {
		t.Fatalf("failing attempt: %v", err)
	}
	if res.Progress.AllGatesMet {
		t.Fatalf("score below threshold must not pass")
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventCompletionGateFailed {
		t.Fatalf("gate failed event expected, got %+v", res.Events)
	}
}

// Two writers racing for the same slot run on separate connections, so
// this test works against the shared database and cleans up after itself.
func TestProgressionAggregateConcurrentEnrollSingleWinner(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	agg := newTestAggregate(t, db)

	u := repotest.SeedUser(t, ctx, db, fmt.Sprintf("race-enroll-%s@test.dev", uuid.NewString()[:8]))
	p := repotest.SeedProtocol(t, ctx, db, 4)
	t.Cleanup(func() {
		db.Unscoped().Where("user_id = ?", u.ID).Delete(&types.LifecycleEvent{})
		db.Unscoped().Where("user_id = ?", u.ID).Delete(&types.Assignment{})
		db.Unscoped().Delete(u)
		db.Unscoped().Delete(p)
	})

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = agg.Enroll(ctx, domainagg.EnrollInput{
				UserID:     u.ID,
				ProtocolID: p.ID,
				Slot:       types.SlotPrimary,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case domainagg.IsCode(err, domainagg.CodePreconditionFailed) && domainagg.MessageOf(err) == ReasonSlotOccupied:
			lost++
		default:
			t.Fatalf("unexpected enroll error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("want exactly one winner and one slot_occupied, got %d/%d (%v)", won, lost, errs)
	}

	var n int64
	if err := db.Model(&types.Assignment{}).
		Where("user_id = ? AND slot = ? AND status = ?", u.ID, types.SlotPrimary, types.AssignmentActive).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("active assignments in slot = %d, want exactly 1", n)
	}
}

func TestProgressionAggregateConcurrentCompletionSingleRecord(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	agg := newTestAggregate(t, db)

	u := repotest.SeedUser(t, ctx, db, fmt.Sprintf("race-complete-%s@test.dev", uuid.NewString()[:8]))
	p := repotest.SeedProtocol(t, ctx, db, 1)
	task := repotest.SeedProtocolTask(t, ctx, db, p.ID, 1, 1, 0, true)
	start := time.Now()
	a := repotest.SeedAssignment(t, ctx, db, u.ID, p.ID, types.SlotPrimary, &start)
	t.Cleanup(func() {
		db.Unscoped().Where("assignment_id = ?", a.ID).Delete(&types.CompletionRecord{})
		db.Unscoped().Where("user_id = ?", u.ID).Delete(&types.LifecycleEvent{})
		db.Unscoped().Delete(a)
		db.Unscoped().Delete(task)
		db.Unscoped().Delete(p)
		db.Unscoped().Delete(u)
	})

	gate := make(chan struct{})
	results := make([]domainagg.RecordCompletionResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			results[i], errs[i] = agg.RecordCompletion(ctx, domainagg.RecordCompletionInput{
				UserID:       u.ID,
				AssignmentID: a.ID,
				TaskID:       task.ID,
			})
		}(i)
	}
	close(gate)
	wg.Wait()

	// Both callers report success; exactly one created the fact.
	replays := 0
	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
		if results[i].AlreadyExists {
			replays++
		}
	}
	if replays != 1 {
		t.Fatalf("replays = %d, want exactly 1", replays)
	}

	var n int64
	if err := db.Model(&types.CompletionRecord{}).
		Where("assignment_id = ? AND task_id = ?", a.ID, task.ID).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("completion records = %d, want exactly 1", n)
	}

	var stored types.Assignment
	if err := db.Where("id = ?", a.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	if stored.DaysCompleted != 1 {
		t.Fatalf("days_completed = %d, want 1", stored.DaysCompleted)
	}
}

func TestProgressionAggregateOptionalGatesNeverAutoComplete(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "optional-only@test.dev")
	prog := repotest.SeedProgram(t, ctx, tx)
	phase := repotest.SeedProgramPhase(t, ctx, tx, prog.ID, 0)
	lesson := repotest.SeedLesson(t, ctx, tx, phase.ID, 0)
	tactic := repotest.SeedTactic(t, ctx, tx, lesson.ID, 0,
		`[{"name":"require_video","required":false,"threshold":50}]`)

	pct := 80.0
	res, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:        u.ID,
		TacticID:      tactic.ID,
		VideoWatchPct: &pct,
	})
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if res.Progress.AllGatesMet || res.GatesCrossed {
		t.Fatalf("optional gates alone must never settle the unit, got %+v", res.Progress)
	}
	if res.Progress.ProgressPct != 0 {
		t.Fatalf("no required gates and no steps: want 0%%, got %v", res.Progress.ProgressPct)
	}
	if len(res.Events) != 0 {
		t.Fatalf("no events expected, got %+v", res.Events)
	}

	// Only an explicit coach override settles an optional-only unit.
	coach := repotest.SeedUser(t, ctx, tx, "optional-coach@test.dev")
	res, err = agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:       u.ID,
		TacticID:     tactic.ID,
		Override:     true,
		OverriddenBy: &coach.ID,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if !res.Progress.AllGatesMet || !res.GatesCrossed || res.Progress.ProgressPct != 100 {
		t.Fatalf("override must settle the unit, got %+v", res.Progress)
	}
}

func TestProgressionAggregateUnchangedSignalSkipsWrite(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "noop-signal@test.dev")
	prog := repotest.SeedProgram(t, ctx, tx)
	phase := repotest.SeedProgramPhase(t, ctx, tx, prog.ID, 0)
	lesson := repotest.SeedLesson(t, ctx, tx, phase.ID, 0)
	tactic := repotest.SeedTactic(t, ctx, tx, lesson.ID, 0,
		`[{"name":"require_video","required":true,"threshold":90}]`)

	pct := 95.0
	first, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:        u.ID,
		TacticID:      tactic.ID,
		VideoWatchPct: &pct,
	})
	if err != nil {
		t.Fatalf("first signal: %v", err)
	}
	if !first.GatesCrossed {
		t.Fatalf("expected crossing, got %+v", first.Progress)
	}

	replay, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:        u.ID,
		TacticID:      tactic.ID,
		VideoWatchPct: &pct,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Progress.Version != first.Progress.Version {
		t.Fatalf("a no-op signal must not bump the version: %d -> %d",
			first.Progress.Version, replay.Progress.Version)
	}
	if len(replay.Events) != 0 {
		t.Fatalf("no events expected on a no-op signal, got %+v", replay.Events)
	}
}

func TestProgressionAggregateCoachOverride(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "override@test.dev")
	coach := repotest.SeedUser(t, ctx, tx, "coach@test.dev")
	prog := repotest.SeedProgram(t, ctx, tx)
	phase := repotest.SeedProgramPhase(t, ctx, tx, prog.ID, 0)
	lesson := repotest.SeedLesson(t, ctx, tx, phase.ID, 0)
	tactic := repotest.SeedTactic(t, ctx, tx, lesson.ID, 0,
		`[{"name":"require_video","required":true,"threshold":90}]`)

	res, err := agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:       u.ID,
		TacticID:     tactic.ID,
		Override:     true,
		OverriddenBy: &coach.ID,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if !res.Progress.AllGatesMet || res.Progress.ProgressPct != 100 {
		t.Fatalf("override must force-pass the gates, got %+v", res.Progress)
	}
	if res.Progress.OverriddenBy == nil || *res.Progress.OverriddenBy != coach.ID {
		t.Fatalf("override actor must be recorded")
	}
	gotTypes := map[types.EventType]int{}
	for _, ev := range res.Events {
		gotTypes[ev.EventType]++
	}
	if gotTypes[types.EventCoachIntervention] != 1 || gotTypes[types.EventCompletionGatePassed] != 1 {
		t.Fatalf("override crossing must audit the intervention and the pass, got %+v", res.Events)
	}

	// A repeat override crosses nothing but is still audited.
	res, err = agg.ApplySignal(ctx, domainagg.ApplySignalInput{
		UserID:       u.ID,
		TacticID:     tactic.ID,
		Override:     true,
		OverriddenBy: &coach.ID,
	})
	if err != nil {
		t.Fatalf("repeat override: %v", err)
	}
	if res.GatesCrossed {
		t.Fatal("repeat override is not a crossing")
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventCoachIntervention {
		t.Fatalf("repeat override must emit coach_intervention only, got %+v", res.Events)
	}
}

func TestProgressionAggregateAdvanceSkipAccounting(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "advance@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 6)
	start := time.Now().AddDate(0, 0, -3)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	// Untouched for 3 days then ticked: pointer lands on day 4 and the
	// two days strictly between count as skipped.
	res, err := agg.AdvanceAssignment(ctx, domainagg.AdvanceAssignmentInput{AssignmentID: a.ID})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !res.Moved {
		t.Fatalf("pointer should move")
	}
	if res.Assignment.AbsoluteDay != 4 {
		t.Fatalf("absolute day: want 4 got %d", res.Assignment.AbsoluteDay)
	}
	if res.SkipDelta != 2 || res.Assignment.DaysSkipped != 2 {
		t.Fatalf("skip accounting: want 2 got delta=%d total=%d", res.SkipDelta, res.Assignment.DaysSkipped)
	}

	// An immediate re-run is idempotent.
	res, err = agg.AdvanceAssignment(ctx, domainagg.AdvanceAssignmentInput{AssignmentID: a.ID})
	if err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if res.Moved {
		t.Fatalf("re-run must not move the pointer again")
	}
	if res.Assignment.DaysSkipped != 2 {
		t.Fatalf("re-run must not grow the skip counter, got %d", res.Assignment.DaysSkipped)
	}
}

func TestProgressionAggregateAdvancePastEndCompletes(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "pastend@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 1)
	start := time.Now().AddDate(0, 0, -7) // 8 elapsed days of a 7-day protocol
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	res, err := agg.AdvanceAssignment(ctx, domainagg.AdvanceAssignmentInput{AssignmentID: a.ID})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !res.PastEnd {
		t.Fatalf("expected past end")
	}
	if res.Assignment.Status != types.AssignmentCompleted {
		t.Fatalf("status: want completed got %s", res.Assignment.Status)
	}
	if res.Assignment.CurrentWeek != 1 || res.Assignment.CurrentDay != 7 {
		t.Fatalf("pointer must pin to final day, got w%d d%d", res.Assignment.CurrentWeek, res.Assignment.CurrentDay)
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventProtocolCompleted {
		t.Fatalf("protocol_completed event expected, got %+v", res.Events)
	}

	// Ticking a terminal assignment is a state conflict.
	_, err = agg.AdvanceAssignment(ctx, domainagg.AdvanceAssignmentInput{AssignmentID: a.ID})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("terminal assignment must reject ticks, got %v", err)
	}
}

func TestProgressionAggregatePauseResumeShiftsClock(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "pause@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 6)
	start := time.Now().AddDate(0, 0, -10)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	pausedAt := time.Now().AddDate(0, 0, -4)
	res, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentPaused,
		EventAt:      pausedAt,
	})
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if res.Assignment.Status != types.AssignmentPaused || res.Assignment.PausedAt == nil {
		t.Fatalf("pause state: %+v", res.Assignment)
	}

	// Pausing twice is a state conflict.
	_, err = agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentPaused,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("double pause: want precondition failure, got %v", err)
	}

	resumeAt := time.Now()
	res, err = agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentActive,
		EventAt:      resumeAt,
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Assignment.Status != types.AssignmentActive || res.Assignment.PausedAt != nil {
		t.Fatalf("resume state: %+v", res.Assignment)
	}
	// The 4 paused days moved the start forward.
	wantStart := start.AddDate(0, 0, 4)
	if res.Assignment.StartAt.Sub(wantStart).Abs() > 2*time.Second {
		t.Fatalf("start shift: got %v want about %v", res.Assignment.StartAt, wantStart)
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventUserReengaged {
		t.Fatalf("user_reengaged event expected, got %+v", res.Events)
	}
}

func TestProgressionAggregateExpirePausedAssignment(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "expire@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 4)
	start := time.Now().AddDate(0, 0, -60)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	if _, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentPaused,
		EventAt:      time.Now().AddDate(0, 0, -45),
	}); err != nil {
		t.Fatalf("pause: %v", err)
	}

	res, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentExpired,
		Reason:       "paused_grace_elapsed",
	})
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if res.Assignment.Status != types.AssignmentExpired {
		t.Fatalf("status: want expired got %s", res.Assignment.Status)
	}
	if len(res.Events) != 1 || res.Events[0].EventType != types.EventSystemCheck {
		t.Fatalf("system_check event expected, got %+v", res.Events)
	}

	// Expired is terminal; only a restart brings the assignment back.
	_, err = agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentExpired,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("double expire: want precondition failure, got %v", err)
	}
	restarted, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentActive,
	})
	if err != nil {
		t.Fatalf("restart after expiry: %v", err)
	}
	if restarted.Assignment.Status != types.AssignmentActive || restarted.Assignment.CurrentWeek != 1 {
		t.Fatalf("restart state: %+v", restarted.Assignment)
	}
}

func TestProgressionAggregateRestartResetsCounters(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	u := repotest.SeedUser(t, ctx, tx, "restart@test.dev")
	p := repotest.SeedProtocol(t, ctx, tx, 2)
	start := time.Now().AddDate(0, 0, -20)
	a := repotest.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	if _, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentAbandoned,
		Reason:       "lost interest",
	}); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	res, err := agg.TransitionStatus(ctx, domainagg.TransitionStatusInput{
		AssignmentID: a.ID,
		Target:       types.AssignmentActive,
	})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	got := res.Assignment
	if got.Status != types.AssignmentActive {
		t.Fatalf("status: %s", got.Status)
	}
	if got.CurrentWeek != 1 || got.CurrentDay != 1 || got.AbsoluteDay != 1 {
		t.Fatalf("restart must reset the pointer, got %+v", got)
	}
	if got.DaysCompleted != 0 || got.DaysSkipped != 0 || got.CompletedAt != nil {
		t.Fatalf("restart must reset counters, got %+v", got)
	}
}

func TestProgressionAggregateValidation(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	agg := newTestAggregate(t, tx)

	_, err := agg.Enroll(ctx, domainagg.EnrollInput{UserID: uuid.New(), ProtocolID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown protocol: want validation error, got %v", err)
	}

	_, err = agg.ApplySignal(ctx, domainagg.ApplySignalInput{UserID: uuid.New(), TacticID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown tactic: want validation error, got %v", err)
	}

	_, err = agg.AdvanceAssignment(ctx, domainagg.AdvanceAssignmentInput{AssignmentID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown assignment: want not found, got %v", err)
	}
}
