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

func TestAssignmentRepoActiveLookup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewAssignmentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "assignment-repo@test.dev")
	p := testutil.SeedProtocol(t, ctx, tx, 6)
	start := time.Now().AddDate(0, 0, -3)
	a := testutil.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, &start)

	got, err := repo.GetActiveByUserSlot(dbc, u.ID, types.SlotPrimary)
	if err != nil {
		t.Fatalf("GetActiveByUserSlot: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("expected active primary assignment, got %+v", got)
	}

	// The secondary slot is empty.
	got, err = repo.GetActiveByUserSlot(dbc, u.ID, types.SlotSecondary)
	if err != nil {
		t.Fatalf("GetActiveByUserSlot secondary: %v", err)
	}
	if got != nil {
		t.Fatalf("secondary slot should be empty, got %+v", got)
	}

	// Terminal assignments no longer occupy the slot.
	if err := repo.UpdateFields(dbc, a.ID, map[string]any{"status": types.AssignmentAbandoned}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetActiveByUserSlot(dbc, u.ID, types.SlotPrimary)
	if err != nil {
		t.Fatalf("GetActiveByUserSlot after abandon: %v", err)
	}
	if got != nil {
		t.Fatalf("abandoned assignment should not occupy the slot")
	}
}

func TestAssignmentRepoPausedStillOccupiesSlot(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewAssignmentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "assignment-paused@test.dev")
	p := testutil.SeedProtocol(t, ctx, tx, 4)
	a := testutil.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, nil)

	if err := repo.UpdateFields(dbc, a.ID, map[string]any{"status": types.AssignmentPaused}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetActiveByUserSlot(dbc, u.ID, types.SlotPrimary)
	if err != nil {
		t.Fatalf("GetActiveByUserSlot: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("paused assignment still occupies the slot, got %+v", got)
	}
}

func TestAssignmentRepoListPausedBefore(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewAssignmentRepo(db, testutil.Logger(t))

	p := testutil.SeedProtocol(t, ctx, tx, 4)
	uStale := testutil.SeedUser(t, ctx, tx, "paused-stale@test.dev")
	uFresh := testutil.SeedUser(t, ctx, tx, "paused-fresh@test.dev")
	uActive := testutil.SeedUser(t, ctx, tx, "paused-active@test.dev")

	stale := testutil.SeedAssignment(t, ctx, tx, uStale.ID, p.ID, types.SlotPrimary, nil)
	fresh := testutil.SeedAssignment(t, ctx, tx, uFresh.ID, p.ID, types.SlotPrimary, nil)
	testutil.SeedAssignment(t, ctx, tx, uActive.ID, p.ID, types.SlotPrimary, nil)

	now := time.Now()
	if err := repo.UpdateFields(dbc, stale.ID, map[string]any{
		"status":    types.AssignmentPaused,
		"paused_at": now.AddDate(0, 0, -40),
	}); err != nil {
		t.Fatalf("UpdateFields stale: %v", err)
	}
	if err := repo.UpdateFields(dbc, fresh.ID, map[string]any{
		"status":    types.AssignmentPaused,
		"paused_at": now.AddDate(0, 0, -2),
	}); err != nil {
		t.Fatalf("UpdateFields fresh: %v", err)
	}

	ids, err := repo.ListPausedBefore(dbc, now.AddDate(0, 0, -30), 10, nil)
	if err != nil {
		t.Fatalf("ListPausedBefore: %v", err)
	}
	found := map[uuid.UUID]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found[stale.ID] {
		t.Fatalf("stale paused assignment missing from %v", ids)
	}
	if found[fresh.ID] {
		t.Fatal("recently paused assignment must not be listed")
	}
}

func TestAssignmentRepoListActiveIDsPages(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := progression.NewAssignmentRepo(db, testutil.Logger(t))

	p := testutil.SeedProtocol(t, ctx, tx, 2)
	seeded := map[uuid.UUID]bool{}
	for i := 0; i < 5; i++ {
		u := testutil.SeedUser(t, ctx, tx, uuid.NewString()+"@page.dev")
		a := testutil.SeedAssignment(t, ctx, tx, u.ID, p.ID, types.SlotPrimary, nil)
		seeded[a.ID] = true
	}

	var after *uuid.UUID
	found := 0
	for {
		ids, err := repo.ListActiveIDs(dbc, 2, after)
		if err != nil {
			t.Fatalf("ListActiveIDs: %v", err)
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if seeded[id] {
				found++
			}
		}
		last := ids[len(ids)-1]
		after = &last
	}
	if found != len(seeded) {
		t.Fatalf("paging missed assignments: found %d of %d", found, len(seeded))
	}
}
