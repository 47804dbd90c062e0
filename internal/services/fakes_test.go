package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

// memStore backs the fake repos with plain maps. Every read hands out a
// copy so tests never observe writes through aliased pointers, mirroring
// how rows come back from the database.
type memStore struct {
	mu        sync.Mutex
	locations map[uuid.UUID]domain.Location
	aisles    map[uuid.UUID]domain.Aisle
	products  map[uuid.UUID]domain.Product
	mappings  map[uuid.UUID]domain.AisleProduct
	notes     map[uuid.UUID]domain.Note
}

func newMemStore() *memStore {
	return &memStore{
		locations: map[uuid.UUID]domain.Location{},
		aisles:    map[uuid.UUID]domain.Aisle{},
		products:  map[uuid.UUID]domain.Product{},
		mappings:  map[uuid.UUID]domain.AisleProduct{},
		notes:     map[uuid.UUID]domain.Note{},
	}
}

type memTxRunner struct{}

func (memTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type memLocationRepo struct{ s *memStore }

func (r *memLocationRepo) Get(_ dbctx.Context, id uuid.UUID) (*domain.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.locations[id]; ok {
		out := row
		return &out, nil
	}
	return nil, nil
}

func (r *memLocationRepo) GetWithAisles(dbc dbctx.Context, id uuid.UUID) (*domain.Location, error) {
	loc, err := r.Get(dbc, id)
	if loc == nil || err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.aisles {
		if a.LocationID != id {
			continue
		}
		for _, m := range r.s.mappings {
			if m.AisleID != a.ID {
				continue
			}
			row := m
			if p, ok := r.s.products[m.ProductID]; ok {
				prod := p
				row.Product = &prod
			}
			a.Products = append(a.Products, row)
		}
		sort.SliceStable(a.Products, func(i, j int) bool {
			return a.Products[i].Rank < a.Products[j].Rank
		})
		loc.Aisles = append(loc.Aisles, a)
	}
	sort.SliceStable(loc.Aisles, func(i, j int) bool {
		if loc.Aisles[i].Rank != loc.Aisles[j].Rank {
			return loc.Aisles[i].Rank < loc.Aisles[j].Rank
		}
		return loc.Aisles[i].Name < loc.Aisles[j].Name
	})
	return loc, nil
}

func (r *memLocationRepo) sorted(match func(domain.Location) bool) []*domain.Location {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Location
	for _, row := range r.s.locations {
		if match(row) {
			loc := row
			out = append(out, &loc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *memLocationRepo) GetAll(dbctx.Context) ([]*domain.Location, error) {
	return r.sorted(func(domain.Location) bool { return true }), nil
}

func (r *memLocationRepo) GetByType(_ dbctx.Context, locType domain.LocationType) ([]*domain.Location, error) {
	return r.sorted(func(l domain.Location) bool { return l.Type == locType }), nil
}

func (r *memLocationRepo) GetHome(dbctx.Context) (*domain.Location, error) {
	homes := r.sorted(func(l domain.Location) bool { return l.Type == domain.LocationTypeHome })
	if len(homes) == 0 {
		return nil, nil
	}
	return homes[0], nil
}

func (r *memLocationRepo) GetPinnedShops(dbctx.Context) ([]*domain.Location, error) {
	return r.sorted(func(l domain.Location) bool {
		return l.Type == domain.LocationTypeShop && l.Pinned
	}), nil
}

func (r *memLocationRepo) Add(_ dbctx.Context, loc *domain.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	row := *loc
	row.Aisles = nil
	r.s.locations[loc.ID] = row
	return nil
}

func (r *memLocationRepo) Update(dbc dbctx.Context, loc *domain.Location) error {
	return r.Add(dbc, loc)
}

func (r *memLocationRepo) Remove(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.locations, id)
	return nil
}

func (r *memLocationRepo) UpdateRank(_ dbctx.Context, id uuid.UUID, rank int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.locations[id]; ok {
		row.Rank = rank
		r.s.locations[id] = row
	}
	return nil
}

func (r *memLocationRepo) UpdateExpanded(_ dbctx.Context, id uuid.UUID, expanded bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.locations[id]; ok {
		row.Expanded = expanded
		r.s.locations[id] = row
	}
	return nil
}

func (r *memLocationRepo) UpdateNoteID(_ dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.locations[id]; ok {
		row.NoteID = noteID
		r.s.locations[id] = row
	}
	return nil
}

func (r *memLocationRepo) GetMaxRank(_ dbctx.Context, locType domain.LocationType) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, row := range r.s.locations {
		if row.Type == locType && row.Rank > max {
			max = row.Rank
		}
	}
	return max, nil
}

type memAisleRepo struct{ s *memStore }

func (r *memAisleRepo) Get(_ dbctx.Context, id uuid.UUID) (*domain.Aisle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.aisles[id]; ok {
		out := row
		return &out, nil
	}
	return nil, nil
}

func (r *memAisleRepo) GetForLocation(_ dbctx.Context, locationID uuid.UUID) ([]*domain.Aisle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Aisle
	for _, row := range r.s.aisles {
		if row.LocationID == locationID {
			a := row
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memAisleRepo) GetDefaultFor(_ dbctx.Context, locationID uuid.UUID) (*domain.Aisle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.aisles {
		if row.LocationID == locationID && row.IsDefault {
			a := row
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memAisleRepo) Add(_ dbctx.Context, aisle *domain.Aisle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if aisle.ID == uuid.Nil {
		aisle.ID = uuid.New()
	}
	row := *aisle
	row.Products = nil
	r.s.aisles[aisle.ID] = row
	return nil
}

func (r *memAisleRepo) Update(dbc dbctx.Context, aisle *domain.Aisle) error {
	return r.Add(dbc, aisle)
}

func (r *memAisleRepo) Remove(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.aisles, id)
	return nil
}

func (r *memAisleRepo) UpdateRank(_ dbctx.Context, id uuid.UUID, rank int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.aisles[id]; ok {
		row.Rank = rank
		r.s.aisles[id] = row
	}
	return nil
}

func (r *memAisleRepo) UpdateExpanded(_ dbctx.Context, id uuid.UUID, expanded bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.aisles[id]; ok {
		row.Expanded = expanded
		r.s.aisles[id] = row
	}
	return nil
}

func (r *memAisleRepo) UpdateExpandedForLocation(_ dbctx.Context, locationID uuid.UUID, expanded bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, row := range r.s.aisles {
		if row.LocationID == locationID {
			row.Expanded = expanded
			r.s.aisles[id] = row
		}
	}
	return nil
}

func (r *memAisleRepo) GetMaxRank(_ dbctx.Context, locationID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, row := range r.s.aisles {
		if row.LocationID == locationID && row.Rank > max {
			max = row.Rank
		}
	}
	return max, nil
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Get(_ dbctx.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.products[id]; ok {
		out := row
		return &out, nil
	}
	return nil, nil
}

func (r *memProductRepo) GetAll(dbctx.Context) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Product
	for _, row := range r.s.products {
		p := row
		out = append(out, &p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProductRepo) GetByName(_ dbctx.Context, name string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := strings.ToLower(strings.TrimSpace(name))
	for _, row := range r.s.products {
		if strings.ToLower(strings.TrimSpace(row.Name)) == want {
			p := row
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Add(_ dbctx.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProductRepo) Update(dbc dbctx.Context, p *domain.Product) error {
	return r.Add(dbc, p)
}

func (r *memProductRepo) Remove(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for mid, m := range r.s.mappings {
		if m.ProductID == id {
			delete(r.s.mappings, mid)
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r *memProductRepo) UpdateStatus(_ dbctx.Context, id uuid.UUID, inStock bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.products[id]; ok {
		row.InStock = inStock
		r.s.products[id] = row
	}
	return nil
}

func (r *memProductRepo) UpdateQtyNeeded(_ dbctx.Context, id uuid.UUID, qty float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.products[id]; ok {
		row.QtyNeeded = qty
		r.s.products[id] = row
	}
	return nil
}

func (r *memProductRepo) UpdateNoteID(_ dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.products[id]; ok {
		row.NoteID = noteID
		r.s.products[id] = row
	}
	return nil
}

type memAisleProductRepo struct{ s *memStore }

func (r *memAisleProductRepo) Get(_ dbctx.Context, id uuid.UUID) (*domain.AisleProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.mappings[id]; ok {
		out := row
		if p, ok := r.s.products[row.ProductID]; ok {
			prod := p
			out.Product = &prod
		}
		return &out, nil
	}
	return nil, nil
}

func (r *memAisleProductRepo) GetForAisle(_ dbctx.Context, aisleID uuid.UUID) ([]*domain.AisleProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.AisleProduct
	for _, row := range r.s.mappings {
		if row.AisleID == aisleID {
			m := row
			out = append(out, &m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (r *memAisleProductRepo) GetForProduct(_ dbctx.Context, productID uuid.UUID) ([]*domain.AisleProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.AisleProduct
	for _, row := range r.s.mappings {
		if row.ProductID == productID {
			m := row
			out = append(out, &m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (r *memAisleProductRepo) GetForProductInAisle(_ dbctx.Context, productID, aisleID uuid.UUID) (*domain.AisleProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.mappings {
		if row.ProductID == productID && row.AisleID == aisleID {
			m := row
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memAisleProductRepo) Add(_ dbctx.Context, ap *domain.AisleProduct) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ap.ID == uuid.Nil {
		ap.ID = uuid.New()
	}
	row := *ap
	row.Product = nil
	r.s.mappings[ap.ID] = row
	return nil
}

func (r *memAisleProductRepo) AddAll(dbc dbctx.Context, aps []*domain.AisleProduct) error {
	for _, ap := range aps {
		if err := r.Add(dbc, ap); err != nil {
			return err
		}
	}
	return nil
}

func (r *memAisleProductRepo) UpdateRank(_ dbctx.Context, id uuid.UUID, rank int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.mappings[id]; ok {
		row.Rank = rank
		r.s.mappings[id] = row
	}
	return nil
}

func (r *memAisleProductRepo) UpdateAisle(_ dbctx.Context, id, aisleID uuid.UUID, rank int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.mappings[id]; ok {
		row.AisleID = aisleID
		row.Rank = rank
		r.s.mappings[id] = row
	}
	return nil
}

func (r *memAisleProductRepo) Remove(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.mappings, id)
	return nil
}

func (r *memAisleProductRepo) RemoveForAisle(_ dbctx.Context, aisleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, row := range r.s.mappings {
		if row.AisleID == aisleID {
			delete(r.s.mappings, id)
		}
	}
	return nil
}

func (r *memAisleProductRepo) GetMaxRank(_ dbctx.Context, aisleID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, row := range r.s.mappings {
		if row.AisleID == aisleID && row.Rank > max {
			max = row.Rank
		}
	}
	return max, nil
}

type memNoteRepo struct{ s *memStore }

func (r *memNoteRepo) Get(_ dbctx.Context, id uuid.UUID) (*domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.notes[id]; ok {
		out := row
		return &out, nil
	}
	return nil, nil
}

func (r *memNoteRepo) Add(_ dbctx.Context, n *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.s.notes[n.ID] = *n
	return nil
}

func (r *memNoteRepo) Update(dbc dbctx.Context, n *domain.Note) error {
	return r.Add(dbc, n)
}

func (r *memNoteRepo) Remove(_ dbctx.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.notes, id)
	return nil
}

// testEnv wires the full service graph over one shared in-memory store.
type testEnv struct {
	store        *memStore
	locationRepo *memLocationRepo
	aisleRepo    *memAisleRepo
	productRepo  *memProductRepo
	mappingRepo  *memAisleProductRepo
	noteRepo     *memNoteRepo

	notes        NoteService
	aisles       AisleService
	products     ProductService
	locations    LocationService
	shoppingList ShoppingListService
}

func newTestEnv(tb testing.TB) *testEnv {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	store := newMemStore()
	env := &testEnv{
		store:        store,
		locationRepo: &memLocationRepo{s: store},
		aisleRepo:    &memAisleRepo{s: store},
		productRepo:  &memProductRepo{s: store},
		mappingRepo:  &memAisleProductRepo{s: store},
		noteRepo:     &memNoteRepo{s: store},
	}
	runner := memTxRunner{}
	env.notes = NewNoteService(log, runner, env.noteRepo, env.productRepo, env.locationRepo)
	env.aisles = NewAisleService(log, runner, env.locationRepo, env.aisleRepo, env.mappingRepo, nil)
	env.products = NewProductService(log, runner, env.locationRepo, env.aisleRepo, env.productRepo, env.mappingRepo, env.noteRepo, env.notes, nil)
	env.locations = NewLocationService(log, runner, env.locationRepo, env.aisleRepo, env.productRepo, env.mappingRepo, env.noteRepo, env.aisles, env.notes, nil)
	env.shoppingList = NewShoppingListService(log, env.locationRepo, nil)
	return env
}

func (e *testEnv) addShop(tb testing.TB, name string) *domain.Location {
	tb.Helper()
	ctx := context.Background()
	id, err := e.locations.Add(ctx, &domain.Location{
		Type:             domain.LocationTypeShop,
		Name:             name,
		DefaultFilter:    domain.FilterAll,
		Expanded:         true,
		ShowDefaultAisle: true,
	})
	if err != nil {
		tb.Fatalf("add shop %q: %v", name, err)
	}
	loc, err := e.locations.Get(ctx, id)
	if err != nil || loc == nil {
		tb.Fatalf("get shop %q: %v", name, err)
	}
	return loc
}

func (e *testEnv) addAisle(tb testing.TB, locationID uuid.UUID, name string, rank int) *domain.Aisle {
	tb.Helper()
	ctx := context.Background()
	id, err := e.aisles.Add(ctx, &domain.Aisle{Name: name, LocationID: locationID, Rank: rank, Expanded: true})
	if err != nil {
		tb.Fatalf("add aisle %q: %v", name, err)
	}
	aisle, err := e.aisles.Get(ctx, id)
	if err != nil || aisle == nil {
		tb.Fatalf("get aisle %q: %v", name, err)
	}
	return aisle
}

func (e *testEnv) addProduct(tb testing.TB, name string, inStock bool) *domain.Product {
	tb.Helper()
	ctx := context.Background()
	id, err := e.products.Add(ctx, &domain.Product{
		Name:         name,
		InStock:      inStock,
		QtyIncrement: 1,
		TrackingMode: domain.TrackingModeToggle,
	})
	if err != nil {
		tb.Fatalf("add product %q: %v", name, err)
	}
	p, err := e.products.Get(ctx, id)
	if err != nil || p == nil {
		tb.Fatalf("get product %q: %v", name, err)
	}
	return p
}

func (e *testEnv) defaultAisleOf(tb testing.TB, locationID uuid.UUID) *domain.Aisle {
	tb.Helper()
	aisle, err := e.aisleRepo.GetDefaultFor(dbctx.Context{Ctx: context.Background()}, locationID)
	if err != nil {
		tb.Fatalf("get default aisle: %v", err)
	}
	if aisle == nil {
		tb.Fatalf("location %s has no default aisle", locationID)
	}
	return aisle
}
