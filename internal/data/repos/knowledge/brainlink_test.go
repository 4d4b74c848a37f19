package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mindforge-ai/mindforge-backend/internal/data/repos/testutil"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/dbctx"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
)

func TestBrainRepoResolve(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	brains := NewBrainRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "brainrepo@example.com")
	b := testutil.SeedBrain(t, ctx, tx, u.ID, "research")

	got, err := brains.GetByID(dbc, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "research" {
		t.Fatalf("unexpected brain: %+v", got)
	}

	if _, err := brains.GetByID(dbc, uuid.New()); !errors.Is(err, kberr.ErrBrainNotFound) {
		t.Fatalf("missing brain: want ErrBrainNotFound, got %v", err)
	}
}

func TestBrainLinkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	brains := NewBrainRepo(db, log)
	links := NewBrainLinkRepo(db, brains, log)

	u := testutil.SeedUser(t, ctx, tx, "brainlink@example.com")
	b := testutil.SeedBrain(t, ctx, tx, u.ID, "inbox")
	k1 := testutil.SeedKnowledge(t, ctx, tx, u.ID, "one.txt", nil)
	k2 := testutil.SeedKnowledge(t, ctx, tx, u.ID, "two.txt", nil)

	if err := links.Link(dbc, k1.ID, b.ID); err != nil {
		t.Fatalf("Link: %v", err)
	}
	// Idempotent: second link of the same pair is a no-op.
	if err := links.Link(dbc, k1.ID, b.ID); err != nil {
		t.Fatalf("Link twice: %v", err)
	}
	if err := links.Link(dbc, k2.ID, b.ID); err != nil {
		t.Fatalf("Link second item: %v", err)
	}

	if err := links.Link(dbc, k1.ID, uuid.New()); !errors.Is(err, kberr.ErrBrainNotFound) {
		t.Fatalf("Link to missing brain: want ErrBrainNotFound, got %v", err)
	}

	all, err := links.AllKnowledgeOf(dbc, b.ID)
	if err != nil {
		t.Fatalf("AllKnowledgeOf: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("AllKnowledgeOf len = %d, want 2", len(all))
	}

	if err := links.Unlink(dbc, k1.ID, b.ID); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := links.Unlink(dbc, k1.ID, b.ID); !errors.Is(err, kberr.ErrNotLinked) {
		t.Fatalf("Unlink again: want ErrNotLinked, got %v", err)
	}
	if err := links.Unlink(dbc, k2.ID, uuid.New()); !errors.Is(err, kberr.ErrBrainNotFound) {
		t.Fatalf("Unlink missing brain: want ErrBrainNotFound, got %v", err)
	}

	removed, err := links.DeleteLinksForBrain(dbc, b.ID)
	if err != nil {
		t.Fatalf("DeleteLinksForBrain: %v", err)
	}
	if removed != 1 {
		t.Fatalf("DeleteLinksForBrain removed = %d, want 1", removed)
	}
	rest, err := links.AllKnowledgeOf(dbc, b.ID)
	if err != nil {
		t.Fatalf("AllKnowledgeOf after delete: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("links remain after DeleteLinksForBrain: %d", len(rest))
	}
}
