package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationType partitions locations into the single HOME inventory and any
// number of shops. Name uniqueness is scoped per type.
type LocationType string

const (
	LocationTypeHome LocationType = "home"
	LocationTypeShop LocationType = "shop"
)

type Location struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Type             LocationType `gorm:"column:type;not null;index:idx_location_type" json:"type"`
	Name             string       `gorm:"column:name;not null" json:"name"`
	Pinned           bool         `gorm:"column:pinned;not null;default:false" json:"pinned"`
	DefaultFilter    FilterMode   `gorm:"column:default_filter;not null;default:'all'" json:"default_filter"`
	Rank             int          `gorm:"column:rank;not null;default:0" json:"rank"`
	Expanded         bool         `gorm:"column:expanded;not null;default:true" json:"expanded"`
	ShowDefaultAisle bool         `gorm:"column:show_default_aisle;not null;default:true" json:"show_default_aisle"`
	NoteID           *uuid.UUID   `gorm:"type:uuid;column:note_id" json:"note_id,omitempty"`
	Aisles           []Aisle      `gorm:"foreignKey:LocationID;references:ID" json:"aisles,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (Location) TableName() string { return "location" }

func (l *Location) EntityID() uuid.UUID     { return l.ID }
func (l *Location) NoteRef() *uuid.UUID     { return l.NoteID }
func (l *Location) SetNoteRef(id *uuid.UUID) { l.NoteID = id }

// NormalizeName is the canonical form used for uniqueness checks: trimmed
// and lowercased, so "  Milk " and "milk" collide.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
