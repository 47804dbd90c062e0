package domain

import (
	"strings"

	"github.com/google/uuid"
)

// FilterMode narrows the shopping-list projection by stock state.
type FilterMode string

const (
	FilterAll     FilterMode = "all"
	FilterInStock FilterMode = "in_stock"
	FilterNeeded  FilterMode = "needed"
)

// ListFilter is the projection's filter state: a stock-status mode plus an
// optional case-insensitive substring search over product names.
type ListFilter struct {
	Mode   FilterMode `json:"mode"`
	Search string     `json:"search,omitempty"`
}

// MatchesProduct reports whether a product row passes the filter. Aisle
// header rows are never filtered; they stay visible even when all of their
// children are filtered out.
func (f ListFilter) MatchesProduct(p *Product) bool {
	if p == nil {
		return false
	}
	switch f.Mode {
	case FilterInStock:
		if !p.InStock {
			return false
		}
	case FilterNeeded:
		if p.InStock {
			return false
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		return strings.Contains(strings.ToLower(p.Name), strings.ToLower(s))
	}
	return true
}

// ListItemKind orders aisle header rows before product rows within an aisle.
type ListItemKind int

const (
	ListItemAisle ListItemKind = iota
	ListItemProduct
)

// ShoppingListItem is one row of the flattened projection: either an aisle
// header or a product entry filed under it.
type ShoppingListItem struct {
	Kind           ListItemKind `json:"kind"`
	AisleID        uuid.UUID    `json:"aisle_id"`
	AisleRank      int          `json:"aisle_rank"`
	Rank           int          `json:"rank"`
	Name           string       `json:"name"`
	AisleIsDefault bool         `json:"aisle_is_default,omitempty"`
	Expanded       bool         `json:"expanded,omitempty"`
	AisleProductID uuid.UUID    `json:"aisle_product_id,omitempty"`
	Product        *Product     `json:"product,omitempty"`
}
