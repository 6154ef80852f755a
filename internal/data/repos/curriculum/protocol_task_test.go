package curriculum_test

import (
	"context"
	"testing"

	"github.com/mioplatform/mio-backend/internal/data/repos/curriculum"
	"github.com/mioplatform/mio-backend/internal/data/repos/testutil"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
)

func TestProtocolTaskRepoListForDayOrdersBySequence(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := curriculum.NewProtocolTaskRepo(db, testutil.Logger(t))

	p := testutil.SeedProtocol(t, ctx, tx, 2)
	second := testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 3, 1, true)
	first := testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 3, 0, true)
	testutil.SeedProtocolTask(t, ctx, tx, p.ID, 1, 4, 0, true)
	testutil.SeedProtocolTask(t, ctx, tx, p.ID, 2, 3, 0, true)

	got, err := repo.ListForDay(dbc, p.ID, 1, 3)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 tasks for w1d3, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("tasks must be ordered by sequence")
	}
}
