package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/realtime/bus"
)

type ShoppingListService interface {
	// Get assembles the flat list for one location: aisle header rows
	// interleaved with product rows, sorted, then filtered. Aisle rows
	// always survive the filter so headers stay visible when all of their
	// children are filtered out.
	Get(ctx context.Context, locationID uuid.UUID, filter domain.ListFilter) ([]domain.ShoppingListItem, error)
	// Watch emits a fresh snapshot on subscribe and after every committed
	// change affecting the location, until ctx is cancelled. The sequence
	// is lazy and restartable; each element is a complete snapshot.
	Watch(ctx context.Context, locationID uuid.UUID, filter domain.ListFilter) (<-chan []domain.ShoppingListItem, error)
}

type shoppingListService struct {
	log          *logger.Logger
	locationRepo repos.LocationRepo
	changes      bus.Bus
}

func NewShoppingListService(
	baseLog *logger.Logger,
	locationRepo repos.LocationRepo,
	changes bus.Bus,
) ShoppingListService {
	return &shoppingListService{
		log:          baseLog.With("service", "ShoppingListService"),
		locationRepo: locationRepo,
		changes:      changes,
	}
}

func (s *shoppingListService) Get(ctx context.Context, locationID uuid.UUID, filter domain.ListFilter) ([]domain.ShoppingListItem, error) {
	loc, err := s.locationRepo.GetWithAisles(dbctx.Context{Ctx: ctx}, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.NewError(domain.CodeNotFound, "shopping_list.get", "location does not exist", nil)
	}
	return flattenLocation(loc, filter), nil
}

// flattenLocation builds the presentation rows: one header per visible
// aisle followed by its product rows, ordered by
// (aisleRank, aisleID, kind, rank, name). The default aisle is omitted
// entirely when the location hides it.
func flattenLocation(loc *domain.Location, filter domain.ListFilter) []domain.ShoppingListItem {
	items := make([]domain.ShoppingListItem, 0, len(loc.Aisles)*4)
	for i := range loc.Aisles {
		aisle := &loc.Aisles[i]
		if aisle.IsDefault && !loc.ShowDefaultAisle {
			continue
		}
		items = append(items, domain.ShoppingListItem{
			Kind:           domain.ListItemAisle,
			AisleID:        aisle.ID,
			AisleRank:      aisle.Rank,
			Name:           aisle.Name,
			AisleIsDefault: aisle.IsDefault,
			Expanded:       aisle.Expanded,
		})
		for j := range aisle.Products {
			ap := &aisle.Products[j]
			name := ""
			if ap.Product != nil {
				name = ap.Product.Name
			}
			items = append(items, domain.ShoppingListItem{
				Kind:           domain.ListItemProduct,
				AisleID:        aisle.ID,
				AisleRank:      aisle.Rank,
				Rank:           ap.Rank,
				Name:           name,
				AisleProductID: ap.ID,
				Product:        ap.Product,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.AisleRank != b.AisleRank {
			return a.AisleRank < b.AisleRank
		}
		if a.AisleID != b.AisleID {
			return a.AisleID.String() < b.AisleID.String()
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return domain.NormalizeName(a.Name) < domain.NormalizeName(b.Name)
	})

	out := items[:0]
	for _, item := range items {
		if item.Kind == domain.ListItemAisle || filter.MatchesProduct(item.Product) {
			out = append(out, item)
		}
	}
	return out
}

func (s *shoppingListService) Watch(ctx context.Context, locationID uuid.UUID, filter domain.ListFilter) (<-chan []domain.ShoppingListItem, error) {
	if s.changes == nil {
		return nil, domain.NewError(domain.CodeGeneric, "shopping_list.watch", "no change bus configured", nil)
	}
	// Fail fast on unknown locations; afterwards a vanished location just
	// ends the stream.
	if _, err := s.Get(ctx, locationID, filter); err != nil {
		return nil, err
	}
	events, cancel, err := s.changes.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.ShoppingListItem, 1)
	go func() {
		defer close(out)
		defer cancel()

		emit := func() bool {
			snapshot, err := s.Get(ctx, locationID, filter)
			if err != nil {
				if domain.IsCode(err, domain.CodeNotFound) {
					return false
				}
				s.log.Warn("snapshot rebuild failed", "error", err, "location_id", locationID)
				return true
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return false
			}
			return true
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !ev.Affects(locationID) {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}
