package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type AisleProductRepo interface {
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.AisleProduct, error)
	GetForAisle(dbc dbctx.Context, aisleID uuid.UUID) ([]*domain.AisleProduct, error)
	GetForProduct(dbc dbctx.Context, productID uuid.UUID) ([]*domain.AisleProduct, error)
	GetForProductInAisle(dbc dbctx.Context, productID, aisleID uuid.UUID) (*domain.AisleProduct, error)
	Add(dbc dbctx.Context, ap *domain.AisleProduct) error
	AddAll(dbc dbctx.Context, aps []*domain.AisleProduct) error
	UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error
	UpdateAisle(dbc dbctx.Context, id, aisleID uuid.UUID, rank int) error
	Remove(dbc dbctx.Context, id uuid.UUID) error
	RemoveForAisle(dbc dbctx.Context, aisleID uuid.UUID) error
	GetMaxRank(dbc dbctx.Context, aisleID uuid.UUID) (int, error)
}

type aisleProductRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAisleProductRepo(db *gorm.DB, baseLog *logger.Logger) AisleProductRepo {
	return &aisleProductRepo{db: db, log: baseLog.With("repo", "AisleProductRepo")}
}

func (r *aisleProductRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *aisleProductRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.AisleProduct, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.AisleProduct
	err := r.conn(dbc).Preload("Product").Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("aisle_product.get", err)
	}
	return &row, nil
}

func (r *aisleProductRepo) GetForAisle(dbc dbctx.Context, aisleID uuid.UUID) ([]*domain.AisleProduct, error) {
	if aisleID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.AisleProduct
	err := r.conn(dbc).
		Preload("Product").
		Where("aisle_id = ?", aisleID).
		Order("rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapError("aisle_product.get_for_aisle", err)
	}
	return rows, nil
}

func (r *aisleProductRepo) GetForProduct(dbc dbctx.Context, productID uuid.UUID) ([]*domain.AisleProduct, error) {
	if productID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.AisleProduct
	err := r.conn(dbc).
		Where("product_id = ?", productID).
		Order("rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapError("aisle_product.get_for_product", err)
	}
	return rows, nil
}

func (r *aisleProductRepo) GetForProductInAisle(dbc dbctx.Context, productID, aisleID uuid.UUID) (*domain.AisleProduct, error) {
	if productID == uuid.Nil || aisleID == uuid.Nil {
		return nil, nil
	}
	var row domain.AisleProduct
	err := r.conn(dbc).
		Where("product_id = ? AND aisle_id = ?", productID, aisleID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("aisle_product.get_for_product_in_aisle", err)
	}
	return &row, nil
}

func (r *aisleProductRepo) Add(dbc dbctx.Context, ap *domain.AisleProduct) error {
	if ap == nil {
		return nil
	}
	if ap.ID == uuid.Nil {
		ap.ID = uuid.New()
	}
	// Never persist a preloaded product aggregate through the association.
	ap.Product = nil
	return MapError("aisle_product.add", r.conn(dbc).Create(ap).Error)
}

func (r *aisleProductRepo) AddAll(dbc dbctx.Context, aps []*domain.AisleProduct) error {
	if len(aps) == 0 {
		return nil
	}
	for _, ap := range aps {
		if ap.ID == uuid.Nil {
			ap.ID = uuid.New()
		}
		ap.Product = nil
	}
	return MapError("aisle_product.add_all", r.conn(dbc).Create(aps).Error)
}

func (r *aisleProductRepo) UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error {
	return MapError("aisle_product.update_rank", r.conn(dbc).
		Model(&domain.AisleProduct{}).
		Where("id = ?", id).
		Update("rank", rank).Error)
}

func (r *aisleProductRepo) UpdateAisle(dbc dbctx.Context, id, aisleID uuid.UUID, rank int) error {
	return MapError("aisle_product.update_aisle", r.conn(dbc).
		Model(&domain.AisleProduct{}).
		Where("id = ?", id).
		Updates(map[string]any{"aisle_id": aisleID, "rank": rank}).Error)
}

func (r *aisleProductRepo) Remove(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return MapError("aisle_product.remove", r.conn(dbc).
		Where("id = ?", id).
		Delete(&domain.AisleProduct{}).Error)
}

func (r *aisleProductRepo) RemoveForAisle(dbc dbctx.Context, aisleID uuid.UUID) error {
	if aisleID == uuid.Nil {
		return nil
	}
	return MapError("aisle_product.remove_for_aisle", r.conn(dbc).
		Where("aisle_id = ?", aisleID).
		Delete(&domain.AisleProduct{}).Error)
}

func (r *aisleProductRepo) GetMaxRank(dbc dbctx.Context, aisleID uuid.UUID) (int, error) {
	var max int
	err := r.conn(dbc).
		Model(&domain.AisleProduct{}).
		Where("aisle_id = ?", aisleID).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, MapError("aisle_product.get_max_rank", err)
	}
	return max, nil
}
