package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/envutil"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService connects to the configured store. Postgres is the
// default; DB_DRIVER=sqlite selects an embedded file database, the natural
// fit for a single-user install.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(envutil.String("DB_DRIVER", "postgres"))
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "aisleron.db")
		serviceLog.Info("Connecting to SQLite...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := db.Exec(`PRAGMA foreign_keys = ON;`).Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	case "postgres":
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "aisleron")

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		serviceLog.Info("Connecting to Postgres...", "host", host, "db", name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&domain.Note{},
		&domain.Location{},
		&domain.Aisle{},
		&domain.Product{},
		&domain.AisleProduct{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	s.log.Info("Configuring foreign key relationships...")
	statements := []string{
		`ALTER TABLE "aisle"
		   DROP CONSTRAINT IF EXISTS "fk_aisle_location_id";`,
		`ALTER TABLE "aisle"
		   ADD CONSTRAINT "fk_aisle_location_id"
		   FOREIGN KEY ("location_id") REFERENCES "location"("id")
		   ON DELETE CASCADE;`,
		`ALTER TABLE "aisle_product"
		   DROP CONSTRAINT IF EXISTS "fk_aisle_product_aisle_id";`,
		`ALTER TABLE "aisle_product"
		   ADD CONSTRAINT "fk_aisle_product_aisle_id"
		   FOREIGN KEY ("aisle_id") REFERENCES "aisle"("id")
		   ON DELETE CASCADE;`,
		`ALTER TABLE "aisle_product"
		   DROP CONSTRAINT IF EXISTS "fk_aisle_product_product_id";`,
		`ALTER TABLE "aisle_product"
		   ADD CONSTRAINT "fk_aisle_product_product_id"
		   FOREIGN KEY ("product_id") REFERENCES "product"("id")
		   ON DELETE CASCADE;`,
	}
	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			s.log.Error("Foreign key configuration failed", "error", err)
			return err
		}
	}
	return nil
}
