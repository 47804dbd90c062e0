package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type ProductRepo interface {
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.Product, error)
	GetAll(dbc dbctx.Context) ([]*domain.Product, error)
	GetByName(dbc dbctx.Context, name string) (*domain.Product, error)
	Add(dbc dbctx.Context, p *domain.Product) error
	Update(dbc dbctx.Context, p *domain.Product) error
	Remove(dbc dbctx.Context, id uuid.UUID) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, inStock bool) error
	UpdateQtyNeeded(dbc dbctx.Context, id uuid.UUID, qty float64) error
	UpdateNoteID(dbc dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *productRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Product
	err := r.conn(dbc).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("product.get", err)
	}
	return &row, nil
}

func (r *productRepo) GetAll(dbc dbctx.Context) ([]*domain.Product, error) {
	var rows []*domain.Product
	if err := r.conn(dbc).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, MapError("product.get_all", err)
	}
	return rows, nil
}

// GetByName matches on the normalized form, so lookups collide the same
// way uniqueness checks do.
func (r *productRepo) GetByName(dbc dbctx.Context, name string) (*domain.Product, error) {
	var row domain.Product
	err := r.conn(dbc).
		Where("LOWER(TRIM(name)) = ?", domain.NormalizeName(name)).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("product.get_by_name", err)
	}
	return &row, nil
}

func (r *productRepo) Add(dbc dbctx.Context, p *domain.Product) error {
	if p == nil {
		return nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return MapError("product.add", r.conn(dbc).Create(p).Error)
}

func (r *productRepo) Update(dbc dbctx.Context, p *domain.Product) error {
	if p == nil || p.ID == uuid.Nil {
		return nil
	}
	return MapError("product.update", r.conn(dbc).
		Model(&domain.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":            p.Name,
			"in_stock":        p.InStock,
			"qty_needed":      p.QtyNeeded,
			"qty_increment":   p.QtyIncrement,
			"unit_of_measure": p.UnitOfMeasure,
			"tracking_mode":   p.TrackingMode,
		}).Error)
}

// Remove cascades: the product's aisle_product rows go first, then the
// product row itself.
func (r *productRepo) Remove(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	conn := r.conn(dbc)
	if err := conn.Where("product_id = ?", id).Delete(&domain.AisleProduct{}).Error; err != nil {
		return MapError("product.remove_mappings", err)
	}
	return MapError("product.remove", conn.
		Where("id = ?", id).
		Delete(&domain.Product{}).Error)
}

func (r *productRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, inStock bool) error {
	return MapError("product.update_status", r.conn(dbc).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("in_stock", inStock).Error)
}

func (r *productRepo) UpdateQtyNeeded(dbc dbctx.Context, id uuid.UUID, qty float64) error {
	return MapError("product.update_qty_needed", r.conn(dbc).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("qty_needed", qty).Error)
}

func (r *productRepo) UpdateNoteID(dbc dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error {
	return MapError("product.update_note_id", r.conn(dbc).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("note_id", noteID).Error)
}
