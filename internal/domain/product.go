package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackingMode selects how a product's stock state is kept: a plain
// in-stock toggle or a needed-quantity counter.
type TrackingMode string

const (
	TrackingModeToggle   TrackingMode = "toggle"
	TrackingModeQuantity TrackingMode = "quantity"
)

// Product names are unique system-wide (case/whitespace-insensitive).
type Product struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string       `gorm:"column:name;not null;index:idx_product_name" json:"name"`
	InStock       bool         `gorm:"column:in_stock;not null;default:false" json:"in_stock"`
	QtyNeeded     float64      `gorm:"column:qty_needed;not null;default:0" json:"qty_needed"`
	QtyIncrement  float64      `gorm:"column:qty_increment;not null;default:1" json:"qty_increment"`
	UnitOfMeasure string       `gorm:"column:unit_of_measure" json:"unit_of_measure,omitempty"`
	TrackingMode  TrackingMode `gorm:"column:tracking_mode;not null;default:'toggle'" json:"tracking_mode"`
	NoteID        *uuid.UUID   `gorm:"type:uuid;column:note_id" json:"note_id,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) EntityID() uuid.UUID      { return p.ID }
func (p *Product) NoteRef() *uuid.UUID      { return p.NoteID }
func (p *Product) SetNoteRef(id *uuid.UUID) { p.NoteID = id }
