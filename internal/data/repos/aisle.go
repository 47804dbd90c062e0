package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type AisleRepo interface {
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.Aisle, error)
	GetForLocation(dbc dbctx.Context, locationID uuid.UUID) ([]*domain.Aisle, error)
	GetDefaultFor(dbc dbctx.Context, locationID uuid.UUID) (*domain.Aisle, error)
	Add(dbc dbctx.Context, aisle *domain.Aisle) error
	Update(dbc dbctx.Context, aisle *domain.Aisle) error
	Remove(dbc dbctx.Context, id uuid.UUID) error
	UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error
	UpdateExpanded(dbc dbctx.Context, id uuid.UUID, expanded bool) error
	UpdateExpandedForLocation(dbc dbctx.Context, locationID uuid.UUID, expanded bool) error
	GetMaxRank(dbc dbctx.Context, locationID uuid.UUID) (int, error)
}

type aisleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAisleRepo(db *gorm.DB, baseLog *logger.Logger) AisleRepo {
	return &aisleRepo{db: db, log: baseLog.With("repo", "AisleRepo")}
}

func (r *aisleRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *aisleRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.Aisle, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Aisle
	err := r.conn(dbc).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("aisle.get", err)
	}
	return &row, nil
}

func (r *aisleRepo) GetForLocation(dbc dbctx.Context, locationID uuid.UUID) ([]*domain.Aisle, error) {
	if locationID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Aisle
	err := r.conn(dbc).
		Where("location_id = ?", locationID).
		Order("rank ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapError("aisle.get_for_location", err)
	}
	return rows, nil
}

func (r *aisleRepo) GetDefaultFor(dbc dbctx.Context, locationID uuid.UUID) (*domain.Aisle, error) {
	if locationID == uuid.Nil {
		return nil, nil
	}
	var row domain.Aisle
	err := r.conn(dbc).
		Where("location_id = ? AND is_default = ?", locationID, true).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("aisle.get_default_for", err)
	}
	return &row, nil
}

func (r *aisleRepo) Add(dbc dbctx.Context, aisle *domain.Aisle) error {
	if aisle == nil {
		return nil
	}
	if aisle.ID == uuid.Nil {
		aisle.ID = uuid.New()
	}
	return MapError("aisle.add", r.conn(dbc).Create(aisle).Error)
}

func (r *aisleRepo) Update(dbc dbctx.Context, aisle *domain.Aisle) error {
	if aisle == nil || aisle.ID == uuid.Nil {
		return nil
	}
	return MapError("aisle.update", r.conn(dbc).
		Model(&domain.Aisle{}).
		Where("id = ?", aisle.ID).
		Updates(map[string]any{
			"name":       aisle.Name,
			"rank":       aisle.Rank,
			"is_default": aisle.IsDefault,
			"expanded":   aisle.Expanded,
		}).Error)
}

func (r *aisleRepo) Remove(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return MapError("aisle.remove", r.conn(dbc).
		Where("id = ?", id).
		Delete(&domain.Aisle{}).Error)
}

func (r *aisleRepo) UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error {
	return MapError("aisle.update_rank", r.conn(dbc).
		Model(&domain.Aisle{}).
		Where("id = ?", id).
		Update("rank", rank).Error)
}

func (r *aisleRepo) UpdateExpanded(dbc dbctx.Context, id uuid.UUID, expanded bool) error {
	return MapError("aisle.update_expanded", r.conn(dbc).
		Model(&domain.Aisle{}).
		Where("id = ?", id).
		Update("expanded", expanded).Error)
}

func (r *aisleRepo) UpdateExpandedForLocation(dbc dbctx.Context, locationID uuid.UUID, expanded bool) error {
	if locationID == uuid.Nil {
		return nil
	}
	return MapError("aisle.update_expanded_for_location", r.conn(dbc).
		Model(&domain.Aisle{}).
		Where("location_id = ?", locationID).
		Update("expanded", expanded).Error)
}

func (r *aisleRepo) GetMaxRank(dbc dbctx.Context, locationID uuid.UUID) (int, error) {
	var max int
	err := r.conn(dbc).
		Model(&domain.Aisle{}).
		Where("location_id = ?", locationID).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, MapError("aisle.get_max_rank", err)
	}
	return max, nil
}
