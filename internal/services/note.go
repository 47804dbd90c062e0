package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type NoteService interface {
	// Apply drives the note state machine for a note-carrying entity:
	//   nil edit            -> no-op
	//   blank text          -> delete the note, clear the owner's ref
	//   same id as owner's  -> update in place
	//   anything else       -> insert new, drop the previous, repoint owner
	// Every mutating branch spans the note write and the owner's ref update
	// in one transaction. Returns the surviving note id, nil when none.
	Apply(ctx context.Context, owner domain.Noted, edited *domain.Note) (*uuid.UUID, error)
	ApplyInTx(dbc dbctx.Context, owner domain.Noted, edited *domain.Note) (*uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	// CopyInTx duplicates a note row inside the caller's transaction,
	// returning the new id; nil for a missing or blank source.
	CopyInTx(dbc dbctx.Context, noteID uuid.UUID) (*uuid.UUID, error)
}

type noteService struct {
	log          *logger.Logger
	runner       repos.TxRunner
	noteRepo     repos.NoteRepo
	productRepo  repos.ProductRepo
	locationRepo repos.LocationRepo
}

func NewNoteService(
	baseLog *logger.Logger,
	runner repos.TxRunner,
	noteRepo repos.NoteRepo,
	productRepo repos.ProductRepo,
	locationRepo repos.LocationRepo,
) NoteService {
	return &noteService{
		log:          baseLog.With("service", "NoteService"),
		runner:       runner,
		noteRepo:     noteRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// writeOwnerRef persists the owner's note_id column through the repo that
// owns the entity's table.
func (s *noteService) writeOwnerRef(dbc dbctx.Context, owner domain.Noted, noteID *uuid.UUID) error {
	switch owner.(type) {
	case *domain.Product:
		return s.productRepo.UpdateNoteID(dbc, owner.EntityID(), noteID)
	case *domain.Location:
		return s.locationRepo.UpdateNoteID(dbc, owner.EntityID(), noteID)
	default:
		return domain.NewError(domain.CodeInvalidArgument, "note.apply", "unsupported note owner", nil)
	}
}

func (s *noteService) Apply(ctx context.Context, owner domain.Noted, edited *domain.Note) (*uuid.UUID, error) {
	if owner == nil {
		return nil, domain.NewError(domain.CodeInvalidArgument, "note.apply", "nil owner", nil)
	}
	if edited == nil {
		return nil, nil
	}
	var out *uuid.UUID
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		id, err := s.ApplyInTx(dbc, owner, edited)
		out = id
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *noteService) ApplyInTx(dbc dbctx.Context, owner domain.Noted, edited *domain.Note) (*uuid.UUID, error) {
	if edited == nil {
		return nil, nil
	}

	if edited.IsBlank() {
		if ref := owner.NoteRef(); ref != nil {
			if err := s.noteRepo.Remove(dbc, *ref); err != nil {
				return nil, err
			}
			if err := s.writeOwnerRef(dbc, owner, nil); err != nil {
				return nil, err
			}
			owner.SetNoteRef(nil)
		}
		return nil, nil
	}

	if ref := owner.NoteRef(); ref != nil && edited.ID != uuid.Nil && *ref == edited.ID {
		if err := s.noteRepo.Update(dbc, edited); err != nil {
			return nil, err
		}
		id := edited.ID
		return &id, nil
	}

	// New note, or the edit carries a foreign id: insert fresh, drop any
	// previous note the owner had, repoint the owner.
	fresh := &domain.Note{ID: uuid.New(), NoteText: edited.NoteText}
	if err := s.noteRepo.Add(dbc, fresh); err != nil {
		return nil, err
	}
	if prev := owner.NoteRef(); prev != nil {
		if err := s.noteRepo.Remove(dbc, *prev); err != nil {
			return nil, err
		}
	}
	if err := s.writeOwnerRef(dbc, owner, &fresh.ID); err != nil {
		return nil, err
	}
	ref := fresh.ID
	owner.SetNoteRef(&ref)
	return &fresh.ID, nil
}

func (s *noteService) Get(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	return s.noteRepo.Get(dbctx.Context{Ctx: ctx}, id)
}

func (s *noteService) CopyInTx(dbc dbctx.Context, noteID uuid.UUID) (*uuid.UUID, error) {
	src, err := s.noteRepo.Get(dbc, noteID)
	if err != nil {
		return nil, err
	}
	if src.IsBlank() {
		return nil, nil
	}
	dup := &domain.Note{ID: uuid.New(), NoteText: src.NoteText}
	if err := s.noteRepo.Add(dbc, dup); err != nil {
		return nil, err
	}
	return &dup.ID, nil
}
