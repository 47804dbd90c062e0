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

type AisleService interface {
	Add(ctx context.Context, aisle *domain.Aisle) (uuid.UUID, error)
	Update(ctx context.Context, aisle *domain.Aisle) error
	Remove(ctx context.Context, id uuid.UUID) error
	// RemoveInTx re-homes the aisle's products onto the location's default
	// aisle (or deletes them when none exists) and deletes the aisle, inside
	// the caller's transaction. Location removal composes over it.
	RemoveInTx(dbc dbctx.Context, aisle *domain.Aisle) error
	// RemoveDefaultInTx deletes a default aisle and its rows with no
	// re-homing. Only valid while the owning location is being removed.
	RemoveDefaultInTx(dbc dbctx.Context, aisle *domain.Aisle) error
	UpdateExpanded(ctx context.Context, id uuid.UUID, expanded bool) (*domain.Aisle, error)
	ExpandCollapseForLocation(ctx context.Context, locationID uuid.UUID, expand bool) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Aisle, error)
	GetForLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Aisle, error)
	GetMaxRank(ctx context.Context, locationID uuid.UUID) (int, error)
	UpdateRank(ctx context.Context, id uuid.UUID, newRank int) error
	SortByName(ctx context.Context, locationID uuid.UUID) error
	IsNameUnique(ctx context.Context, aisle *domain.Aisle) (bool, error)
}

type aisleService struct {
	log          *logger.Logger
	runner       repos.TxRunner
	locationRepo repos.LocationRepo
	aisleRepo    repos.AisleRepo
	mappingRepo  repos.AisleProductRepo
	changes      bus.Bus
}

func NewAisleService(
	baseLog *logger.Logger,
	runner repos.TxRunner,
	locationRepo repos.LocationRepo,
	aisleRepo repos.AisleRepo,
	mappingRepo repos.AisleProductRepo,
	changes bus.Bus,
) AisleService {
	return &aisleService{
		log:          baseLog.With("service", "AisleService"),
		runner:       runner,
		locationRepo: locationRepo,
		aisleRepo:    aisleRepo,
		mappingRepo:  mappingRepo,
		changes:      changes,
	}
}

func (s *aisleService) notify(ctx context.Context, action realtime.Action, id, locationID uuid.UUID) {
	if s.changes == nil {
		return
	}
	ev := realtime.ChangeEvent{Entity: realtime.EntityAisle, Action: action, ID: id, LocationID: locationID}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.log.Debug("change publish failed", "error", err, "aisle_id", id)
	}
}

func (s *aisleService) Add(ctx context.Context, aisle *domain.Aisle) (uuid.UUID, error) {
	if aisle == nil {
		return uuid.Nil, domain.NewError(domain.CodeInvalidArgument, "aisle.add", "nil aisle", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if aisle.ID != uuid.Nil {
		existing, err := s.aisleRepo.Get(dbc, aisle.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if existing != nil {
			return aisle.ID, s.Update(ctx, aisle)
		}
	}

	loc, err := s.locationRepo.Get(dbc, aisle.LocationID)
	if err != nil {
		return uuid.Nil, err
	}
	if loc == nil {
		return uuid.Nil, domain.NewError(domain.CodeInvalidLocation, "aisle.add", "location does not exist", nil)
	}
	unique, err := s.IsNameUnique(ctx, aisle)
	if err != nil {
		return uuid.Nil, err
	}
	if !unique {
		return uuid.Nil, domain.NewError(domain.CodeDuplicateAisleName, "aisle.add", "aisle name already used in this location", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if aisle.Rank < 1 {
			max, err := s.aisleRepo.GetMaxRank(dbc, aisle.LocationID)
			if err != nil {
				return err
			}
			aisle.Rank = max + 1
		} else {
			if err := s.shiftAisleRanks(dbc, aisle.LocationID, aisle.ID, aisle.Rank); err != nil {
				return err
			}
		}
		return s.aisleRepo.Add(dbc, aisle)
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.notify(ctx, realtime.ActionCreated, aisle.ID, aisle.LocationID)
	return aisle.ID, nil
}

func (s *aisleService) Update(ctx context.Context, aisle *domain.Aisle) error {
	if aisle == nil || aisle.ID == uuid.Nil {
		return domain.NewError(domain.CodeInvalidArgument, "aisle.update", "missing aisle id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.aisleRepo.Get(dbc, aisle.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NewError(domain.CodeNotFound, "aisle.update", "aisle does not exist", nil)
	}
	// The default flag is not caller-writable; every location keeps
	// exactly one default aisle across updates.
	aisle.IsDefault = existing.IsDefault

	loc, err := s.locationRepo.Get(dbc, aisle.LocationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return domain.NewError(domain.CodeInvalidLocation, "aisle.update", "location does not exist", nil)
	}
	unique, err := s.IsNameUnique(ctx, aisle)
	if err != nil {
		return err
	}
	if !unique {
		return domain.NewError(domain.CodeDuplicateAisleName, "aisle.update", "aisle name already used in this location", nil)
	}
	if err := s.aisleRepo.Update(dbc, aisle); err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, aisle.ID, aisle.LocationID)
	return nil
}

func (s *aisleService) Remove(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	aisle, err := s.aisleRepo.Get(dbc, id)
	if err != nil {
		return err
	}
	if aisle == nil {
		return nil
	}
	if aisle.IsDefault {
		return domain.NewError(domain.CodeDeleteDefaultAisle, "aisle.remove", "default aisle cannot be removed", nil)
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		return s.RemoveInTx(dbc, aisle)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionDeleted, aisle.ID, aisle.LocationID)
	return nil
}

func (s *aisleService) RemoveInTx(dbc dbctx.Context, aisle *domain.Aisle) error {
	if aisle == nil {
		return nil
	}
	if aisle.IsDefault {
		return domain.NewError(domain.CodeDeleteDefaultAisle, "aisle.remove", "default aisle cannot be removed", nil)
	}
	defaultAisle, err := s.aisleRepo.GetDefaultFor(dbc, aisle.LocationID)
	if err != nil {
		return err
	}
	if defaultAisle != nil {
		// Re-home the aisle's rows onto the default aisle, continuing after
		// its current tail so the relocated products keep their order.
		rows, err := s.mappingRepo.GetForAisle(dbc, aisle.ID)
		if err != nil {
			return err
		}
		max, err := s.mappingRepo.GetMaxRank(dbc, defaultAisle.ID)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if err := s.mappingRepo.UpdateAisle(dbc, row.ID, defaultAisle.ID, max+i+1); err != nil {
				return err
			}
		}
	} else {
		if err := s.mappingRepo.RemoveForAisle(dbc, aisle.ID); err != nil {
			return err
		}
	}
	return s.aisleRepo.Remove(dbc, aisle.ID)
}

func (s *aisleService) RemoveDefaultInTx(dbc dbctx.Context, aisle *domain.Aisle) error {
	if aisle == nil {
		return nil
	}
	if err := s.mappingRepo.RemoveForAisle(dbc, aisle.ID); err != nil {
		return err
	}
	return s.aisleRepo.Remove(dbc, aisle.ID)
}

func (s *aisleService) UpdateExpanded(ctx context.Context, id uuid.UUID, expanded bool) (*domain.Aisle, error) {
	dbc := dbctx.Context{Ctx: ctx}
	aisle, err := s.aisleRepo.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if aisle == nil {
		// Benign race: aisle deleted between fetch and tap.
		return nil, nil
	}
	if err := s.aisleRepo.UpdateExpanded(dbc, id, expanded); err != nil {
		return nil, err
	}
	aisle.Expanded = expanded
	s.notify(ctx, realtime.ActionUpdated, id, aisle.LocationID)
	return aisle, nil
}

func (s *aisleService) ExpandCollapseForLocation(ctx context.Context, locationID uuid.UUID, expand bool) error {
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.aisleRepo.UpdateExpandedForLocation(dbc, locationID, expand); err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, uuid.Nil, locationID)
	return nil
}

func (s *aisleService) Get(ctx context.Context, id uuid.UUID) (*domain.Aisle, error) {
	return s.aisleRepo.Get(dbctx.Context{Ctx: ctx}, id)
}

func (s *aisleService) GetForLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Aisle, error) {
	return s.aisleRepo.GetForLocation(dbctx.Context{Ctx: ctx}, locationID)
}

func (s *aisleService) GetMaxRank(ctx context.Context, locationID uuid.UUID) (int, error) {
	return s.aisleRepo.GetMaxRank(dbctx.Context{Ctx: ctx}, locationID)
}

func (s *aisleService) UpdateRank(ctx context.Context, id uuid.UUID, newRank int) error {
	var locationID uuid.UUID
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		target, err := s.aisleRepo.Get(dbc, id)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		locationID = target.LocationID
		newRank = clampRank(newRank)
		if err := s.shiftAisleRanks(dbc, target.LocationID, target.ID, newRank); err != nil {
			return err
		}
		return s.aisleRepo.UpdateRank(dbc, id, newRank)
	})
	if err != nil {
		return err
	}
	if locationID != uuid.Nil {
		s.notify(ctx, realtime.ActionUpdated, id, locationID)
	}
	return nil
}

func (s *aisleService) shiftAisleRanks(dbc dbctx.Context, locationID, targetID uuid.UUID, newRank int) error {
	siblings, err := s.aisleRepo.GetForLocation(dbc, locationID)
	if err != nil {
		return err
	}
	shift := siblingsToShift(siblings,
		func(a *domain.Aisle) uuid.UUID { return a.ID },
		func(a *domain.Aisle) int { return a.Rank },
		targetID, newRank)
	for _, a := range shift {
		if err := s.aisleRepo.UpdateRank(dbc, a.ID, a.Rank+1); err != nil {
			return err
		}
	}
	return nil
}

// SortByName re-ranks a location's aisles alphabetically, always pinning
// the default aisle to the tail position.
func (s *aisleService) SortByName(ctx context.Context, locationID uuid.UUID) error {
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		aisles, err := s.aisleRepo.GetForLocation(dbc, locationID)
		if err != nil {
			return err
		}
		sort.SliceStable(aisles, func(i, j int) bool {
			if aisles[i].IsDefault != aisles[j].IsDefault {
				return !aisles[i].IsDefault
			}
			return domain.NormalizeName(aisles[i].Name) < domain.NormalizeName(aisles[j].Name)
		})
		for i, a := range aisles {
			if a.Rank == i+1 {
				continue
			}
			if err := s.aisleRepo.UpdateRank(dbc, a.ID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, uuid.Nil, locationID)
	return nil
}

// IsNameUnique checks the aisle's name against the non-default aisles of
// its location, ignoring case and surrounding whitespace. The aisle's own
// row never counts against it, and default aisles are exempt entirely.
func (s *aisleService) IsNameUnique(ctx context.Context, aisle *domain.Aisle) (bool, error) {
	if aisle == nil {
		return false, nil
	}
	if aisle.IsDefault {
		return true, nil
	}
	siblings, err := s.aisleRepo.GetForLocation(dbctx.Context{Ctx: ctx}, aisle.LocationID)
	if err != nil {
		return false, err
	}
	name := domain.NormalizeName(aisle.Name)
	for _, sib := range siblings {
		if sib.ID == aisle.ID || sib.IsDefault {
			continue
		}
		if domain.NormalizeName(sib.Name) == name {
			return false, nil
		}
	}
	return true, nil
}
