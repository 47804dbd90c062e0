package realtime

import "github.com/google/uuid"

type EntityKind string

const (
	EntityLocation     EntityKind = "location"
	EntityAisle        EntityKind = "aisle"
	EntityProduct      EntityKind = "product"
	EntityAisleProduct EntityKind = "aisle_product"
	EntityNote         EntityKind = "note"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent is published after a successful commit so watchers can
// re-query. LocationID is uuid.Nil for changes that touch every location
// (product-level edits).
type ChangeEvent struct {
	Entity     EntityKind `json:"entity"`
	Action     Action     `json:"action"`
	ID         uuid.UUID  `json:"id"`
	LocationID uuid.UUID  `json:"location_id,omitempty"`
}

// Affects reports whether the event can change the shopping list of the
// given location.
func (e ChangeEvent) Affects(locationID uuid.UUID) bool {
	return e.LocationID == uuid.Nil || e.LocationID == locationID
}
