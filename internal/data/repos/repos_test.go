package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/data/repos/testutil"
	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
)

func TestLocationRepo_GetWithAislesPreloadsOrdered(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	loc := testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Grocer", 1)
	def := testutil.SeedAisle(t, repoCtx, loc.ID, domain.DefaultAisleName, 1, true)
	dairy := testutil.SeedAisle(t, repoCtx, loc.ID, "Dairy", 2, false)
	milk := testutil.SeedProduct(t, repoCtx, "Milk", false)
	cheese := testutil.SeedProduct(t, repoCtx, "Cheese", true)
	testutil.SeedMapping(t, repoCtx, dairy.ID, cheese.ID, 2)
	testutil.SeedMapping(t, repoCtx, dairy.ID, milk.ID, 1)

	repo := repos.NewLocationRepo(db, log)
	got, err := repo.GetWithAisles(repoCtx, loc.ID)
	if err != nil {
		t.Fatalf("get with aisles: %v", err)
	}
	if got == nil {
		t.Fatalf("location not found")
	}
	if len(got.Aisles) != 2 {
		t.Fatalf("aisle count = %d, want 2", len(got.Aisles))
	}
	if got.Aisles[0].ID != def.ID || got.Aisles[1].ID != dairy.ID {
		t.Fatalf("aisles out of rank order: %v, %v", got.Aisles[0].Name, got.Aisles[1].Name)
	}
	rows := got.Aisles[1].Products
	if len(rows) != 2 {
		t.Fatalf("dairy row count = %d, want 2", len(rows))
	}
	if rows[0].ProductID != milk.ID {
		t.Fatalf("rows out of rank order, first product = %s, want milk", rows[0].ProductID)
	}
	if rows[0].Product == nil || rows[0].Product.Name != "Milk" {
		t.Fatalf("nested product not preloaded: %+v", rows[0].Product)
	}
}

func TestLocationRepo_GetHomeAndPinnedShops(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	home := testutil.SeedLocation(t, repoCtx, domain.LocationTypeHome, "Home", 1)
	testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Unpinned", 1)
	pinned := testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Pinned", 2)
	pinned.Pinned = true
	if err := tx.Save(pinned).Error; err != nil {
		t.Fatalf("update pinned: %v", err)
	}

	repo := repos.NewLocationRepo(db, log)
	gotHome, err := repo.GetHome(repoCtx)
	if err != nil || gotHome == nil || gotHome.ID != home.ID {
		t.Fatalf("get home = %+v, %v", gotHome, err)
	}
	shops, err := repo.GetPinnedShops(repoCtx)
	if err != nil {
		t.Fatalf("get pinned shops: %v", err)
	}
	if len(shops) != 1 || shops[0].ID != pinned.ID {
		t.Fatalf("pinned shops = %+v, want just %s", shops, pinned.ID)
	}
}

func TestProductRepo_GetByNameNormalizes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	p := testutil.SeedProduct(t, repoCtx, "Whole Milk", false)

	repo := repos.NewProductRepo(db, log)
	got, err := repo.GetByName(repoCtx, "  whole milk ")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Fatalf("get by name = %+v, want %s", got, p.ID)
	}
	missing, err := repo.GetByName(repoCtx, "skim milk")
	if err != nil || missing != nil {
		t.Fatalf("get by unknown name = %+v, %v, want nil, nil", missing, err)
	}
}

func TestProductRepo_RemoveCascadesMappings(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	loc := testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Grocer", 1)
	def := testutil.SeedAisle(t, repoCtx, loc.ID, domain.DefaultAisleName, 1, true)
	milk := testutil.SeedProduct(t, repoCtx, "Milk", false)
	testutil.SeedMapping(t, repoCtx, def.ID, milk.ID, 1)

	productRepo := repos.NewProductRepo(db, log)
	if err := productRepo.Remove(repoCtx, milk.ID); err != nil {
		t.Fatalf("remove product: %v", err)
	}

	mappingRepo := repos.NewAisleProductRepo(db, log)
	rows, err := mappingRepo.GetForAisle(repoCtx, def.ID)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("mapping rows survived product remove: %d", len(rows))
	}
}

func TestAisleRepo_GetDefaultForAndMaxRank(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	loc := testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Grocer", 1)
	def := testutil.SeedAisle(t, repoCtx, loc.ID, domain.DefaultAisleName, 1, true)
	testutil.SeedAisle(t, repoCtx, loc.ID, "Dairy", 4, false)

	repo := repos.NewAisleRepo(db, log)
	got, err := repo.GetDefaultFor(repoCtx, loc.ID)
	if err != nil || got == nil || got.ID != def.ID {
		t.Fatalf("get default = %+v, %v, want %s", got, err, def.ID)
	}
	max, err := repo.GetMaxRank(repoCtx, loc.ID)
	if err != nil {
		t.Fatalf("get max rank: %v", err)
	}
	if max != 4 {
		t.Fatalf("max rank = %d, want 4", max)
	}
	// Empty scopes report zero so append logic starts at one.
	max, err = repo.GetMaxRank(repoCtx, uuid.New())
	if err != nil || max != 0 {
		t.Fatalf("max rank of empty scope = %d, %v, want 0, nil", max, err)
	}
}

func TestAisleProductRepo_UpdateAisleMovesRow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	loc := testutil.SeedLocation(t, repoCtx, domain.LocationTypeShop, "Grocer", 1)
	def := testutil.SeedAisle(t, repoCtx, loc.ID, domain.DefaultAisleName, 1, true)
	dairy := testutil.SeedAisle(t, repoCtx, loc.ID, "Dairy", 2, false)
	milk := testutil.SeedProduct(t, repoCtx, "Milk", false)
	row := testutil.SeedMapping(t, repoCtx, def.ID, milk.ID, 1)

	repo := repos.NewAisleProductRepo(db, log)
	if err := repo.UpdateAisle(repoCtx, row.ID, dairy.ID, 5); err != nil {
		t.Fatalf("update aisle: %v", err)
	}
	got, err := repo.Get(repoCtx, row.ID)
	if err != nil || got == nil {
		t.Fatalf("get row: %v, %v", got, err)
	}
	if got.AisleID != dairy.ID || got.Rank != 5 {
		t.Fatalf("row after move = aisle %s rank %d, want dairy/5", got.AisleID, got.Rank)
	}
	if got.Product == nil || got.Product.Name != "Milk" {
		t.Fatalf("product not preloaded on get: %+v", got.Product)
	}
}

func TestNoteRepo_Lifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repoCtx := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := repos.NewNoteRepo(db, log)
	n := &domain.Note{ID: uuid.New(), NoteText: "first"}
	if err := repo.Add(repoCtx, n); err != nil {
		t.Fatalf("add note: %v", err)
	}
	n.NoteText = "second"
	if err := repo.Update(repoCtx, n); err != nil {
		t.Fatalf("update note: %v", err)
	}
	got, err := repo.Get(repoCtx, n.ID)
	if err != nil || got == nil || got.NoteText != "second" {
		t.Fatalf("get note = %+v, %v", got, err)
	}
	if err := repo.Remove(repoCtx, n.ID); err != nil {
		t.Fatalf("remove note: %v", err)
	}
	got, err = repo.Get(repoCtx, n.ID)
	if err != nil || got != nil {
		t.Fatalf("note survived remove: %+v, %v", got, err)
	}
}
