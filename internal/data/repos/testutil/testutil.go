package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}

		if err := autoMigrateAll(db); err != nil {
			dbErr = err
			return
		}
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Note{},
		&domain.Location{},
		&domain.Aisle{},
		&domain.Product{},
		&domain.AisleProduct{},
	)
}

func SeedLocation(tb testing.TB, dbc dbctx.Context, locType domain.LocationType, name string, rank int) *domain.Location {
	tb.Helper()
	loc := &domain.Location{
		ID:               uuid.New(),
		Type:             locType,
		Name:             name,
		DefaultFilter:    domain.FilterAll,
		Rank:             rank,
		Expanded:         true,
		ShowDefaultAisle: true,
	}
	if err := dbc.Tx.Create(loc).Error; err != nil {
		tb.Fatalf("seed location %q: %v", name, err)
	}
	return loc
}

func SeedAisle(tb testing.TB, dbc dbctx.Context, locationID uuid.UUID, name string, rank int, isDefault bool) *domain.Aisle {
	tb.Helper()
	aisle := &domain.Aisle{
		ID:         uuid.New(),
		Name:       name,
		LocationID: locationID,
		Rank:       rank,
		IsDefault:  isDefault,
		Expanded:   true,
	}
	if err := dbc.Tx.Create(aisle).Error; err != nil {
		tb.Fatalf("seed aisle %q: %v", name, err)
	}
	return aisle
}

func SeedProduct(tb testing.TB, dbc dbctx.Context, name string, inStock bool) *domain.Product {
	tb.Helper()
	p := &domain.Product{
		ID:           uuid.New(),
		Name:         name,
		InStock:      inStock,
		QtyIncrement: 1,
		TrackingMode: domain.TrackingModeToggle,
	}
	if err := dbc.Tx.Create(p).Error; err != nil {
		tb.Fatalf("seed product %q: %v", name, err)
	}
	return p
}

func SeedMapping(tb testing.TB, dbc dbctx.Context, aisleID, productID uuid.UUID, rank int) *domain.AisleProduct {
	tb.Helper()
	ap := &domain.AisleProduct{
		ID:        uuid.New(),
		AisleID:   aisleID,
		ProductID: productID,
		Rank:      rank,
	}
	if err := dbc.Tx.Create(ap).Error; err != nil {
		tb.Fatalf("seed mapping: %v", err)
	}
	return ap
}
