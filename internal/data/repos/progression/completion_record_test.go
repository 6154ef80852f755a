package progression_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mioplatform/mio-backend/internal/data/repos/progression"
	"github.com/mioplatform/mio-backend/internal/data/repos/testutil"
	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
)

func TestCompletionRecordRepoUniquePerAssignmentTask(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewCompletionRecordRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "completion-repo@test.dev")
	p := testutil.SeedProtocol(t, ctx, tx, 1)
	task := testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 1, 0, true)
	a := testutil.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, nil)

	now := time.Now()
	if _, err := repo.Create(dbc, []*types.CompletionRecord{{
		AssignmentID: a.ID,
		TaskID:       task.ID,
		UserID:       u.ID,
		Kind:         types.CompletionDone,
		CompletedAt:  now,
	}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The unique index rejects a second row for the same leaf.
	_, err := repo.Create(dbc, []*types.CompletionRecord{{
		AssignmentID: a.ID,
		TaskID:       task.ID,
		UserID:       u.ID,
		Kind:         types.CompletionDone,
		CompletedAt:  now.Add(time.Hour),
	}})
	if err == nil {
		t.Fatalf("duplicate completion must be rejected by the unique index")
	}
}

func TestCompletionRecordRepoCountsOnlyDone(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewCompletionRecordRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "completion-count@test.dev")
	p := testutil.SeedProtocol(t, ctx, tx, 1)
	done := testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 1, 0, true)
	skipped := testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 1, 1, true)
	a := testutil.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, nil)

	now := time.Now()
	if _, err := repo.Create(dbc, []*types.CompletionRecord{
		{AssignmentID: a.ID, TaskID: done.ID, UserID: u.ID, Kind: types.CompletionDone, CompletedAt: now},
		{AssignmentID: a.ID, TaskID: skipped.ID, UserID: u.ID, Kind: types.CompletionSkipped, CompletedAt: now},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := repo.CountByAssignmentTasks(dbc, a.ID, []uuid.UUID{done.ID, skipped.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("skipped records must not count as done, got %d", n)
	}

	got, err := repo.GetByAssignmentTask(dbc, a.ID, skipped.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Kind != types.CompletionSkipped {
		t.Fatalf("expected skipped record, got %+v", got)
	}
}
