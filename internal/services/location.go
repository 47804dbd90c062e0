package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/realtime"
	"github.com/aisleron/aisleron-server/internal/realtime/bus"
)

type LocationService interface {
	Add(ctx context.Context, loc *domain.Location) (uuid.UUID, error)
	Update(ctx context.Context, loc *domain.Location) error
	Remove(ctx context.Context, id uuid.UUID) error
	Copy(ctx context.Context, id uuid.UUID, newName string) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	GetAll(ctx context.Context) ([]*domain.Location, error)
	GetHome(ctx context.Context) (*domain.Location, error)
	GetShops(ctx context.Context) ([]*domain.Location, error)
	GetPinnedShops(ctx context.Context) ([]*domain.Location, error)
	UpdateExpanded(ctx context.Context, id uuid.UUID, expanded bool) (*domain.Location, error)
	UpdateRank(ctx context.Context, id uuid.UUID, newRank int) error
	ExpandCollapse(ctx context.Context, locType domain.LocationType, expand bool) error
	SortByName(ctx context.Context, locType domain.LocationType) error
	GetMaxRank(ctx context.Context, locType domain.LocationType) (int, error)
	IsNameUnique(ctx context.Context, loc *domain.Location) (bool, error)
}

type locationService struct {
	log          *logger.Logger
	runner       repos.TxRunner
	locationRepo repos.LocationRepo
	aisleRepo    repos.AisleRepo
	productRepo  repos.ProductRepo
	mappingRepo  repos.AisleProductRepo
	noteRepo     repos.NoteRepo
	aisleSvc     AisleService
	noteSvc      NoteService
	changes      bus.Bus
}

func NewLocationService(
	baseLog *logger.Logger,
	runner repos.TxRunner,
	locationRepo repos.LocationRepo,
	aisleRepo repos.AisleRepo,
	productRepo repos.ProductRepo,
	mappingRepo repos.AisleProductRepo,
	noteRepo repos.NoteRepo,
	aisleSvc AisleService,
	noteSvc NoteService,
	changes bus.Bus,
) LocationService {
	return &locationService{
		log:          baseLog.With("service", "LocationService"),
		runner:       runner,
		locationRepo: locationRepo,
		aisleRepo:    aisleRepo,
		productRepo:  productRepo,
		mappingRepo:  mappingRepo,
		noteRepo:     noteRepo,
		aisleSvc:     aisleSvc,
		noteSvc:      noteSvc,
		changes:      changes,
	}
}

func (s *locationService) notify(ctx context.Context, action realtime.Action, id uuid.UUID) {
	if s.changes == nil {
		return
	}
	ev := realtime.ChangeEvent{Entity: realtime.EntityLocation, Action: action, ID: id, LocationID: id}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.log.Debug("change publish failed", "error", err, "location_id", id)
	}
}

// Add creates a location with its mandatory default aisle and files every
// existing product into that aisle, mirroring what product-add does for
// every existing location. An already-known id routes to the update path,
// which touches only the location row.
func (s *locationService) Add(ctx context.Context, loc *domain.Location) (uuid.UUID, error) {
	if loc == nil {
		return uuid.Nil, domain.NewError(domain.CodeInvalidArgument, "location.add", "nil location", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if loc.ID != uuid.Nil {
		existing, err := s.locationRepo.Get(dbc, loc.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if existing != nil {
			return loc.ID, s.Update(ctx, loc)
		}
	}

	unique, err := s.IsNameUnique(ctx, loc)
	if err != nil {
		return uuid.Nil, err
	}
	if !unique {
		return uuid.Nil, domain.NewError(domain.CodeDuplicateLocationName, "location.add", "location name already used for this type", nil)
	}
	if loc.Type == domain.LocationTypeHome {
		home, err := s.locationRepo.GetHome(dbc)
		if err != nil {
			return uuid.Nil, err
		}
		if home != nil {
			return uuid.Nil, domain.NewError(domain.CodeInvalidLocation, "location.add", "home location already exists", nil)
		}
	}

	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if loc.Rank < 1 {
			max, err := s.locationRepo.GetMaxRank(dbc, loc.Type)
			if err != nil {
				return err
			}
			loc.Rank = max + 1
		} else {
			if err := s.shiftLocationRanks(dbc, loc.Type, loc.ID, loc.Rank); err != nil {
				return err
			}
		}
		if err := s.locationRepo.Add(dbc, loc); err != nil {
			return err
		}
		defaultAisle := &domain.Aisle{
			ID:         uuid.New(),
			Name:       domain.DefaultAisleName,
			LocationID: loc.ID,
			Rank:       1,
			IsDefault:  true,
			Expanded:   true,
		}
		if err := s.aisleRepo.Add(dbc, defaultAisle); err != nil {
			return err
		}
		products, err := s.productRepo.GetAll(dbc)
		if err != nil {
			return err
		}
		for i, p := range products {
			ap := &domain.AisleProduct{
				AisleID:   defaultAisle.ID,
				ProductID: p.ID,
				Rank:      i + 1,
			}
			if err := s.mappingRepo.Add(dbc, ap); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.notify(ctx, realtime.ActionCreated, loc.ID)
	return loc.ID, nil
}

func (s *locationService) Update(ctx context.Context, loc *domain.Location) error {
	if loc == nil || loc.ID == uuid.Nil {
		return domain.NewError(domain.CodeInvalidArgument, "location.update", "missing location id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.locationRepo.Get(dbc, loc.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NewError(domain.CodeNotFound, "location.update", "location does not exist", nil)
	}
	// Type is fixed at creation; the system never has more or less than
	// one home location once it exists.
	loc.Type = existing.Type
	unique, err := s.IsNameUnique(ctx, loc)
	if err != nil {
		return err
	}
	if !unique {
		return domain.NewError(domain.CodeDuplicateLocationName, "location.update", "location name already used for this type", nil)
	}
	if err := s.locationRepo.Update(dbc, loc); err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, loc.ID)
	return nil
}

// Remove tears a location down inside one transaction: every non-default
// aisle goes through the regular removal path (re-homing its products onto
// the default aisle), then the default aisle is dropped with its rows, then
// the location's note and the location itself.
func (s *locationService) Remove(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	loc, err := s.locationRepo.Get(dbc, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return nil
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		aisles, err := s.aisleRepo.GetForLocation(dbc, id)
		if err != nil {
			return err
		}
		var defaultAisle *domain.Aisle
		for _, a := range aisles {
			if a.IsDefault {
				defaultAisle = a
				continue
			}
			if err := s.aisleSvc.RemoveInTx(dbc, a); err != nil {
				return err
			}
		}
		if defaultAisle != nil {
			if err := s.aisleSvc.RemoveDefaultInTx(dbc, defaultAisle); err != nil {
				return err
			}
		}
		if loc.NoteID != nil {
			if err := s.noteRepo.Remove(dbc, *loc.NoteID); err != nil {
				return err
			}
		}
		return s.locationRepo.Remove(dbc, id)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionDeleted, id)
	return nil
}

// Copy deep-copies a location: a fresh location row appended after the
// tail of its type, every aisle (default flag preserved), every product
// mapping, and an independent copy of the note.
func (s *locationService) Copy(ctx context.Context, id uuid.UUID, newName string) (uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.locationRepo.Get(dbc, id)
	if err != nil {
		return uuid.Nil, err
	}
	if src == nil {
		return uuid.Nil, domain.NewError(domain.CodeNotFound, "location.copy", "location does not exist", nil)
	}
	probe := &domain.Location{Type: src.Type, Name: newName}
	unique, err := s.IsNameUnique(ctx, probe)
	if err != nil {
		return uuid.Nil, err
	}
	if !unique {
		return uuid.Nil, domain.NewError(domain.CodeDuplicateLocationName, "location.copy", "location name already used for this type", nil)
	}

	dup := &domain.Location{
		ID:               uuid.New(),
		Type:             src.Type,
		Name:             newName,
		Pinned:           src.Pinned,
		DefaultFilter:    src.DefaultFilter,
		Expanded:         src.Expanded,
		ShowDefaultAisle: src.ShowDefaultAisle,
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		max, err := s.locationRepo.GetMaxRank(dbc, src.Type)
		if err != nil {
			return err
		}
		dup.Rank = max + 1
		if src.NoteID != nil {
			copied, err := s.noteSvc.CopyInTx(dbc, *src.NoteID)
			if err != nil {
				return err
			}
			dup.NoteID = copied
		}
		if err := s.locationRepo.Add(dbc, dup); err != nil {
			return err
		}
		aisles, err := s.aisleRepo.GetForLocation(dbc, src.ID)
		if err != nil {
			return err
		}
		for _, a := range aisles {
			aisleCopy := &domain.Aisle{
				ID:         uuid.New(),
				Name:       a.Name,
				LocationID: dup.ID,
				Rank:       a.Rank,
				IsDefault:  a.IsDefault,
				Expanded:   a.Expanded,
			}
			if err := s.aisleRepo.Add(dbc, aisleCopy); err != nil {
				return err
			}
			rows, err := s.mappingRepo.GetForAisle(dbc, a.ID)
			if err != nil {
				return err
			}
			for _, row := range rows {
				ap := &domain.AisleProduct{
					AisleID:   aisleCopy.ID,
					ProductID: row.ProductID,
					Rank:      row.Rank,
				}
				if err := s.mappingRepo.Add(dbc, ap); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.notify(ctx, realtime.ActionCreated, dup.ID)
	return dup.ID, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	return s.locationRepo.Get(dbctx.Context{Ctx: ctx}, id)
}

func (s *locationService) GetAll(ctx context.Context) ([]*domain.Location, error) {
	return s.locationRepo.GetAll(dbctx.Context{Ctx: ctx})
}

func (s *locationService) GetHome(ctx context.Context) (*domain.Location, error) {
	return s.locationRepo.GetHome(dbctx.Context{Ctx: ctx})
}

func (s *locationService) GetShops(ctx context.Context) ([]*domain.Location, error) {
	return s.locationRepo.GetByType(dbctx.Context{Ctx: ctx}, domain.LocationTypeShop)
}

func (s *locationService) GetPinnedShops(ctx context.Context) ([]*domain.Location, error) {
	return s.locationRepo.GetPinnedShops(dbctx.Context{Ctx: ctx})
}

func (s *locationService) UpdateExpanded(ctx context.Context, id uuid.UUID, expanded bool) (*domain.Location, error) {
	dbc := dbctx.Context{Ctx: ctx}
	loc, err := s.locationRepo.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, nil
	}
	if err := s.locationRepo.UpdateExpanded(dbc, id, expanded); err != nil {
		return nil, err
	}
	loc.Expanded = expanded
	s.notify(ctx, realtime.ActionUpdated, id)
	return loc, nil
}

func (s *locationService) UpdateRank(ctx context.Context, id uuid.UUID, newRank int) error {
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		target, err := s.locationRepo.Get(dbc, id)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		newRank = clampRank(newRank)
		if err := s.shiftLocationRanks(dbc, target.Type, target.ID, newRank); err != nil {
			return err
		}
		return s.locationRepo.UpdateRank(dbc, id, newRank)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, id)
	return nil
}

func (s *locationService) shiftLocationRanks(dbc dbctx.Context, locType domain.LocationType, targetID uuid.UUID, newRank int) error {
	siblings, err := s.locationRepo.GetByType(dbc, locType)
	if err != nil {
		return err
	}
	shift := siblingsToShift(siblings,
		func(l *domain.Location) uuid.UUID { return l.ID },
		func(l *domain.Location) int { return l.Rank },
		targetID, newRank)
	for _, l := range shift {
		if err := s.locationRepo.UpdateRank(dbc, l.ID, l.Rank+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *locationService) ExpandCollapse(ctx context.Context, locType domain.LocationType, expand bool) error {
	dbc := dbctx.Context{Ctx: ctx}
	locations, err := s.locationRepo.GetByType(dbc, locType)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		if err := s.locationRepo.UpdateExpanded(dbc, loc.ID, expand); err != nil {
			return err
		}
	}
	s.notify(ctx, realtime.ActionUpdated, uuid.Nil)
	return nil
}

// SortByName re-ranks all locations of a type alphabetically. Unlike aisle
// sorting there is no default to pin; every sibling competes by name.
func (s *locationService) SortByName(ctx context.Context, locType domain.LocationType) error {
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		locations, err := s.locationRepo.GetByType(dbc, locType)
		if err != nil {
			return err
		}
		sort.SliceStable(locations, func(i, j int) bool {
			return domain.NormalizeName(locations[i].Name) < domain.NormalizeName(locations[j].Name)
		})
		for i, loc := range locations {
			if loc.Rank == i+1 {
				continue
			}
			if err := s.locationRepo.UpdateRank(dbc, loc.ID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, uuid.Nil)
	return nil
}

func (s *locationService) GetMaxRank(ctx context.Context, locType domain.LocationType) (int, error) {
	return s.locationRepo.GetMaxRank(dbctx.Context{Ctx: ctx}, locType)
}

// IsNameUnique checks the location's name against others of the same type,
// ignoring case and surrounding whitespace. The location's own row never
// counts against it.
func (s *locationService) IsNameUnique(ctx context.Context, loc *domain.Location) (bool, error) {
	if loc == nil {
		return false, nil
	}
	siblings, err := s.locationRepo.GetByType(dbctx.Context{Ctx: ctx}, loc.Type)
	if err != nil {
		return false, err
	}
	name := domain.NormalizeName(loc.Name)
	for _, sib := range siblings {
		if sib.ID == loc.ID {
			continue
		}
		if domain.NormalizeName(sib.Name) == name {
			return false, nil
		}
	}
	return true, nil
}
