package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type NoteRepo interface {
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.Note, error)
	Add(dbc dbctx.Context, n *domain.Note) error
	Update(dbc dbctx.Context, n *domain.Note) error
	Remove(dbc dbctx.Context, id uuid.UUID) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *noteRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.Note, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Note
	err := r.conn(dbc).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("note.get", err)
	}
	return &row, nil
}

func (r *noteRepo) Add(dbc dbctx.Context, n *domain.Note) error {
	if n == nil {
		return nil
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return MapError("note.add", r.conn(dbc).Create(n).Error)
}

func (r *noteRepo) Update(dbc dbctx.Context, n *domain.Note) error {
	if n == nil || n.ID == uuid.Nil {
		return nil
	}
	return MapError("note.update", r.conn(dbc).
		Model(&domain.Note{}).
		Where("id = ?", n.ID).
		Update("note_text", n.NoteText).Error)
}

func (r *noteRepo) Remove(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return MapError("note.remove", r.conn(dbc).
		Where("id = ?", id).
		Delete(&domain.Note{}).Error)
}
