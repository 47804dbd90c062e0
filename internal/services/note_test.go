package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
)

func TestNoteApply_NilEditIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	milk := env.addProduct(t, "Milk", false)

	id, err := env.notes.Apply(context.Background(), milk, nil)
	if err != nil || id != nil {
		t.Fatalf("nil edit = %v, %v, want nil, nil", id, err)
	}
	if len(env.store.notes) != 0 {
		t.Fatalf("nil edit created a note")
	}
}

func TestNoteApply_CreatesAndRepointsOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	milk := env.addProduct(t, "Milk", false)

	id, err := env.notes.Apply(ctx, milk, &domain.Note{NoteText: "organic only"})
	if err != nil {
		t.Fatalf("apply note: %v", err)
	}
	if id == nil {
		t.Fatalf("apply returned nil id for a non-blank note")
	}
	if milk.NoteID == nil || *milk.NoteID != *id {
		t.Fatalf("owner ref = %v, want %s", milk.NoteID, id)
	}
	stored, err := env.products.Get(ctx, milk.ID)
	if err != nil || stored == nil {
		t.Fatalf("get product: %v", err)
	}
	if stored.NoteID == nil || *stored.NoteID != *id {
		t.Fatalf("persisted ref = %v, want %s", stored.NoteID, id)
	}
	note, err := env.notes.Get(ctx, *id)
	if err != nil || note == nil || note.NoteText != "organic only" {
		t.Fatalf("stored note = %+v, %v", note, err)
	}
}

func TestNoteApply_UpdatesInPlaceForSameID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	milk := env.addProduct(t, "Milk", false)

	first, err := env.notes.Apply(ctx, milk, &domain.Note{NoteText: "v1"})
	if err != nil {
		t.Fatalf("apply first: %v", err)
	}
	second, err := env.notes.Apply(ctx, milk, &domain.Note{ID: *first, NoteText: "v2"})
	if err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if *second != *first {
		t.Fatalf("in-place edit changed id %s -> %s", first, second)
	}
	note, _ := env.notes.Get(ctx, *first)
	if note.NoteText != "v2" {
		t.Fatalf("note text = %q, want v2", note.NoteText)
	}
	if len(env.store.notes) != 1 {
		t.Fatalf("note count = %d, want 1", len(env.store.notes))
	}
}

func TestNoteApply_BlankDeletesAndClearsRef(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	milk := env.addProduct(t, "Milk", false)

	first, err := env.notes.Apply(ctx, milk, &domain.Note{NoteText: "temp"})
	if err != nil {
		t.Fatalf("apply first: %v", err)
	}
	id, err := env.notes.Apply(ctx, milk, &domain.Note{ID: *first, NoteText: "   "})
	if err != nil || id != nil {
		t.Fatalf("blank apply = %v, %v, want nil, nil", id, err)
	}
	if milk.NoteID != nil {
		t.Fatalf("owner ref after blank apply = %v, want nil", milk.NoteID)
	}
	stored, _ := env.products.Get(ctx, milk.ID)
	if stored.NoteID != nil {
		t.Fatalf("persisted ref after blank apply = %v, want nil", stored.NoteID)
	}
	if len(env.store.notes) != 0 {
		t.Fatalf("note row survived blank apply")
	}

	// Blank against an owner with no note stays a no-op.
	if id, err := env.notes.Apply(ctx, milk, &domain.Note{NoteText: ""}); err != nil || id != nil {
		t.Fatalf("blank apply without note = %v, %v, want nil, nil", id, err)
	}
}

func TestNoteApply_ForeignIDReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	milk := env.addProduct(t, "Milk", false)

	first, err := env.notes.Apply(ctx, milk, &domain.Note{NoteText: "old"})
	if err != nil {
		t.Fatalf("apply first: %v", err)
	}
	second, err := env.notes.Apply(ctx, milk, &domain.Note{ID: uuid.New(), NoteText: "new"})
	if err != nil {
		t.Fatalf("apply replacement: %v", err)
	}
	if *second == *first {
		t.Fatalf("replacement kept the old id %s", first)
	}
	if old, _ := env.notes.Get(ctx, *first); old != nil {
		t.Fatalf("previous note survived replacement")
	}
	if len(env.store.notes) != 1 {
		t.Fatalf("note count = %d, want 1", len(env.store.notes))
	}
}

func TestNoteApply_LocationOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shop := env.addShop(t, "Grocer")

	id, err := env.notes.Apply(ctx, shop, &domain.Note{NoteText: "cash only"})
	if err != nil || id == nil {
		t.Fatalf("apply to location = %v, %v", id, err)
	}
	stored, _ := env.locations.Get(ctx, shop.ID)
	if stored.NoteID == nil || *stored.NoteID != *id {
		t.Fatalf("persisted location ref = %v, want %s", stored.NoteID, id)
	}
}

func TestNoteApply_UnsupportedOwnerRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.notes.Apply(context.Background(), nil, &domain.Note{NoteText: "x"})
	if !domain.IsCode(err, domain.CodeInvalidArgument) {
		t.Fatalf("nil owner error = %v, want %s", err, domain.CodeInvalidArgument)
	}
}
