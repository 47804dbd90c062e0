package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is free text owned 0..1 by a Noted entity. Blank text means "no
// note": applying a blank note deletes the row and clears the owner's ref.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NoteText  string    `gorm:"column:note_text;type:text;not null" json:"note_text"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Note) TableName() string { return "note" }

func (n *Note) IsBlank() bool {
	return n == nil || strings.TrimSpace(n.NoteText) == ""
}

// Noted is the capability of owning a note via a nullable ref column.
// Implemented by *Product and *Location.
type Noted interface {
	EntityID() uuid.UUID
	NoteRef() *uuid.UUID
	SetNoteRef(id *uuid.UUID)
}
