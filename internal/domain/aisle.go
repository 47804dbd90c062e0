package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAisleName is the display name given to every location's default
// aisle when the location is created.
const DefaultAisleName = "No Aisle"

// Aisle groups products inside a location. Every location owns exactly one
// default aisle, the overflow bucket that absorbs products when another
// aisle is removed; it cannot be deleted while the location exists.
type Aisle struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	LocationID uuid.UUID      `gorm:"type:uuid;column:location_id;not null;index:idx_aisle_location" json:"location_id"`
	Rank       int            `gorm:"column:rank;not null;default:0" json:"rank"`
	IsDefault  bool           `gorm:"column:is_default;not null;default:false" json:"is_default"`
	Expanded   bool           `gorm:"column:expanded;not null;default:true" json:"expanded"`
	Products   []AisleProduct `gorm:"foreignKey:AisleID;references:ID" json:"products,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Aisle) TableName() string { return "aisle" }
