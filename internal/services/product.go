package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/realtime"
	"github.com/aisleron/aisleron-server/internal/realtime/bus"
)

// ProductMapping is one entry of a product's per-location filing: the
// location it is visible in and the single aisle it sits under there.
type ProductMapping struct {
	Location *domain.Location `json:"location"`
	Aisle    *domain.Aisle    `json:"aisle"`
}

type ProductService interface {
	Add(ctx context.Context, p *domain.Product) (uuid.UUID, error)
	Update(ctx context.Context, p *domain.Product) error
	Remove(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, inStock bool) (*domain.Product, error)
	UpdateQtyNeeded(ctx context.Context, id uuid.UUID, qty float64) (*domain.Product, error)
	ChangeAisle(ctx context.Context, productID, fromAisleID, toAisleID uuid.UUID) error
	Copy(ctx context.Context, productID uuid.UUID, newName string) (uuid.UUID, error)
	GetMappings(ctx context.Context, productID uuid.UUID) ([]ProductMapping, error)
	UpdateMappingRank(ctx context.Context, mappingID uuid.UUID, newRank int) error
	GetAisleMaxRank(ctx context.Context, aisleID uuid.UUID) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetAll(ctx context.Context) ([]*domain.Product, error)
	IsNameUnique(ctx context.Context, p *domain.Product) (bool, error)
}

type productService struct {
	log          *logger.Logger
	runner       repos.TxRunner
	locationRepo repos.LocationRepo
	aisleRepo    repos.AisleRepo
	productRepo  repos.ProductRepo
	mappingRepo  repos.AisleProductRepo
	noteRepo     repos.NoteRepo
	noteSvc      NoteService
	changes      bus.Bus
}

func NewProductService(
	baseLog *logger.Logger,
	runner repos.TxRunner,
	locationRepo repos.LocationRepo,
	aisleRepo repos.AisleRepo,
	productRepo repos.ProductRepo,
	mappingRepo repos.AisleProductRepo,
	noteRepo repos.NoteRepo,
	noteSvc NoteService,
	changes bus.Bus,
) ProductService {
	return &productService{
		log:          baseLog.With("service", "ProductService"),
		runner:       runner,
		locationRepo: locationRepo,
		aisleRepo:    aisleRepo,
		productRepo:  productRepo,
		mappingRepo:  mappingRepo,
		noteRepo:     noteRepo,
		noteSvc:      noteSvc,
		changes:      changes,
	}
}

func (s *productService) notify(ctx context.Context, action realtime.Action, id, locationID uuid.UUID) {
	if s.changes == nil {
		return
	}
	ev := realtime.ChangeEvent{Entity: realtime.EntityProduct, Action: action, ID: id, LocationID: locationID}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.log.Debug("change publish failed", "error", err, "product_id", id)
	}
}

// Add inserts a product and files it under every location's default aisle
// at that aisle's tail, atomically. Products are visible everywhere by
// default; aisle placement is per-location curation afterwards.
func (s *productService) Add(ctx context.Context, p *domain.Product) (uuid.UUID, error) {
	if p == nil {
		return uuid.Nil, domain.NewError(domain.CodeInvalidArgument, "product.add", "nil product", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if p.ID != uuid.Nil {
		existing, err := s.productRepo.Get(dbc, p.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if existing != nil {
			return uuid.Nil, domain.NewError(domain.CodeDuplicateProduct, "product.add", "product already exists, use update", nil)
		}
	}
	if p.QtyNeeded < 0 {
		return uuid.Nil, domain.NewError(domain.CodeInvalidArgument, "product.add", "qty needed cannot be negative", nil)
	}
	unique, err := s.IsNameUnique(ctx, p)
	if err != nil {
		return uuid.Nil, err
	}
	if !unique {
		return uuid.Nil, domain.NewError(domain.CodeDuplicateProductName, "product.add", "product name already used", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.productRepo.Add(dbc, p); err != nil {
			return err
		}
		locations, err := s.locationRepo.GetAll(dbc)
		if err != nil {
			return err
		}
		for _, loc := range locations {
			defaultAisle, err := s.aisleRepo.GetDefaultFor(dbc, loc.ID)
			if err != nil {
				return err
			}
			if defaultAisle == nil {
				continue
			}
			max, err := s.mappingRepo.GetMaxRank(dbc, defaultAisle.ID)
			if err != nil {
				return err
			}
			ap := &domain.AisleProduct{
				AisleID:   defaultAisle.ID,
				ProductID: p.ID,
				Rank:      max + 1,
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
	s.notify(ctx, realtime.ActionCreated, p.ID, uuid.Nil)
	return p.ID, nil
}

func (s *productService) Update(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == uuid.Nil {
		return domain.NewError(domain.CodeInvalidArgument, "product.update", "missing product id", nil)
	}
	if p.QtyNeeded < 0 {
		return domain.NewError(domain.CodeInvalidArgument, "product.update", "qty needed cannot be negative", nil)
	}
	unique, err := s.IsNameUnique(ctx, p)
	if err != nil {
		return err
	}
	if !unique {
		return domain.NewError(domain.CodeDuplicateProductName, "product.update", "product name already used", nil)
	}
	if err := s.productRepo.Update(dbctx.Context{Ctx: ctx}, p); err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, p.ID, uuid.Nil)
	return nil
}

// Remove deletes the product's note (if any) and the product itself in one
// transaction; the mapping rows cascade inside the repository.
func (s *productService) Remove(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.Get(dbc, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if p.NoteID != nil {
			if err := s.noteRepo.Remove(dbc, *p.NoteID); err != nil {
				return err
			}
		}
		return s.productRepo.Remove(dbc, id)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionDeleted, id, uuid.Nil)
	return nil
}

func (s *productService) UpdateStatus(ctx context.Context, id uuid.UUID, inStock bool) (*domain.Product, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if err := s.productRepo.UpdateStatus(dbc, id, inStock); err != nil {
		return nil, err
	}
	p.InStock = inStock
	s.notify(ctx, realtime.ActionUpdated, id, uuid.Nil)
	return p, nil
}

func (s *productService) UpdateQtyNeeded(ctx context.Context, id uuid.UUID, qty float64) (*domain.Product, error) {
	if qty < 0 {
		return nil, domain.NewError(domain.CodeInvalidArgument, "product.update_qty_needed", "qty needed cannot be negative", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if err := s.productRepo.UpdateQtyNeeded(dbc, id, qty); err != nil {
		return nil, err
	}
	p.QtyNeeded = qty
	s.notify(ctx, realtime.ActionUpdated, id, uuid.Nil)
	return p, nil
}

// ChangeAisle refiles a product from one aisle to another within the same
// location, appending after the destination's tail. Missing aisles or a
// missing mapping are benign no-ops; crossing locations is an error.
func (s *productService) ChangeAisle(ctx context.Context, productID, fromAisleID, toAisleID uuid.UUID) error {
	if fromAisleID == toAisleID {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	from, err := s.aisleRepo.Get(dbc, fromAisleID)
	if err != nil {
		return err
	}
	to, err := s.aisleRepo.Get(dbc, toAisleID)
	if err != nil {
		return err
	}
	if from == nil || to == nil {
		return nil
	}
	if from.LocationID != to.LocationID {
		return domain.NewError(domain.CodeAisleMove, "product.change_aisle", "aisles belong to different locations", nil)
	}
	mapping, err := s.mappingRepo.GetForProductInAisle(dbc, productID, fromAisleID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return nil
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		max, err := s.mappingRepo.GetMaxRank(dbc, toAisleID)
		if err != nil {
			return err
		}
		return s.mappingRepo.UpdateAisle(dbc, mapping.ID, toAisleID, max+1)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, realtime.ActionUpdated, productID, to.LocationID)
	return nil
}

// Copy clones a product under a new name: same fields, every aisle mapping
// duplicated at the destination tails, and a deep copy of the note.
func (s *productService) Copy(ctx context.Context, productID uuid.UUID, newName string) (uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.productRepo.Get(dbc, productID)
	if err != nil {
		return uuid.Nil, err
	}
	if src == nil {
		return uuid.Nil, domain.NewError(domain.CodeNotFound, "product.copy", "product does not exist", nil)
	}
	probe := &domain.Product{Name: newName}
	unique, err := s.IsNameUnique(ctx, probe)
	if err != nil {
		return uuid.Nil, err
	}
	if !unique {
		return uuid.Nil, domain.NewError(domain.CodeDuplicateProductName, "product.copy", "product name already used", nil)
	}

	dup := &domain.Product{
		ID:            uuid.New(),
		Name:          newName,
		InStock:       src.InStock,
		QtyNeeded:     src.QtyNeeded,
		QtyIncrement:  src.QtyIncrement,
		UnitOfMeasure: src.UnitOfMeasure,
		TrackingMode:  src.TrackingMode,
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if src.NoteID != nil {
			copied, err := s.noteSvc.CopyInTx(dbc, *src.NoteID)
			if err != nil {
				return err
			}
			dup.NoteID = copied
		}
		if err := s.productRepo.Add(dbc, dup); err != nil {
			return err
		}
		mappings, err := s.mappingRepo.GetForProduct(dbc, src.ID)
		if err != nil {
			return err
		}
		for _, m := range mappings {
			max, err := s.mappingRepo.GetMaxRank(dbc, m.AisleID)
			if err != nil {
				return err
			}
			ap := &domain.AisleProduct{
				AisleID:   m.AisleID,
				ProductID: dup.ID,
				Rank:      max + 1,
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
	s.notify(ctx, realtime.ActionCreated, dup.ID, uuid.Nil)
	return dup.ID, nil
}

// GetMappings resolves, per location the product is mapped into, the single
// aisle it is filed under there. Entries whose aisle or location has since
// disappeared are silently dropped.
func (s *productService) GetMappings(ctx context.Context, productID uuid.UUID) ([]ProductMapping, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.mappingRepo.GetForProduct(dbc, productID)
	if err != nil {
		return nil, err
	}
	out := make([]ProductMapping, 0, len(rows))
	for _, row := range rows {
		aisle, err := s.aisleRepo.Get(dbc, row.AisleID)
		if err != nil {
			return nil, err
		}
		if aisle == nil {
			continue
		}
		loc, err := s.locationRepo.Get(dbc, aisle.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			continue
		}
		out = append(out, ProductMapping{Location: loc, Aisle: aisle})
	}
	return out, nil
}

func (s *productService) UpdateMappingRank(ctx context.Context, mappingID uuid.UUID, newRank int) error {
	var locationID uuid.UUID
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		target, err := s.mappingRepo.Get(dbc, mappingID)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		if aisle, err := s.aisleRepo.Get(dbc, target.AisleID); err != nil {
			return err
		} else if aisle != nil {
			locationID = aisle.LocationID
		}
		newRank = clampRank(newRank)
		siblings, err := s.mappingRepo.GetForAisle(dbc, target.AisleID)
		if err != nil {
			return err
		}
		shift := siblingsToShift(siblings,
			func(m *domain.AisleProduct) uuid.UUID { return m.ID },
			func(m *domain.AisleProduct) int { return m.Rank },
			target.ID, newRank)
		for _, m := range shift {
			if err := s.mappingRepo.UpdateRank(dbc, m.ID, m.Rank+1); err != nil {
				return err
			}
		}
		return s.mappingRepo.UpdateRank(dbc, target.ID, newRank)
	})
	if err != nil {
		return err
	}
	if locationID != uuid.Nil {
		s.notify(ctx, realtime.ActionUpdated, mappingID, locationID)
	}
	return nil
}

func (s *productService) GetAisleMaxRank(ctx context.Context, aisleID uuid.UUID) (int, error) {
	return s.mappingRepo.GetMaxRank(dbctx.Context{Ctx: ctx}, aisleID)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.Get(dbctx.Context{Ctx: ctx}, id)
}

func (s *productService) GetAll(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.GetAll(dbctx.Context{Ctx: ctx})
}

// IsNameUnique checks the product's name against all products, ignoring
// case and surrounding whitespace. The product's own row never counts.
func (s *productService) IsNameUnique(ctx context.Context, p *domain.Product) (bool, error) {
	if p == nil {
		return false, nil
	}
	existing, err := s.productRepo.GetByName(dbctx.Context{Ctx: ctx}, p.Name)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.ID == p.ID {
		return true, nil
	}
	return false, nil
}
