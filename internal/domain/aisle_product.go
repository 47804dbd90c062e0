package domain

import (
	"time"

	"github.com/google/uuid"
)

// AisleProduct files one product under one aisle with a manual sort rank.
// Rank is scoped per aisle. A product appears at most once per aisle and,
// in practice, once per location (its default-aisle row moves with it).
type AisleProduct struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AisleID   uuid.UUID `gorm:"type:uuid;column:aisle_id;not null;index:idx_aisle_product_aisle" json:"aisle_id"`
	ProductID uuid.UUID `gorm:"type:uuid;column:product_id;not null;index:idx_aisle_product_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Rank      int       `gorm:"column:rank;not null;default:0" json:"rank"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AisleProduct) TableName() string { return "aisle_product" }
