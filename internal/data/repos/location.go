package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/dbctx"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
)

type LocationRepo interface {
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.Location, error)
	GetWithAisles(dbc dbctx.Context, id uuid.UUID) (*domain.Location, error)
	GetAll(dbc dbctx.Context) ([]*domain.Location, error)
	GetByType(dbc dbctx.Context, locType domain.LocationType) ([]*domain.Location, error)
	GetHome(dbc dbctx.Context) (*domain.Location, error)
	GetPinnedShops(dbc dbctx.Context) ([]*domain.Location, error)
	Add(dbc dbctx.Context, loc *domain.Location) error
	Update(dbc dbctx.Context, loc *domain.Location) error
	Remove(dbc dbctx.Context, id uuid.UUID) error
	UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error
	UpdateExpanded(dbc dbctx.Context, id uuid.UUID, expanded bool) error
	UpdateNoteID(dbc dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error
	GetMaxRank(dbc dbctx.Context, locType domain.LocationType) (int, error)
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo")}
}

func (r *locationRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *locationRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.Location, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Location
	err := r.conn(dbc).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("location.get", err)
	}
	return &row, nil
}

func (r *locationRepo) GetWithAisles(dbc dbctx.Context, id uuid.UUID) (*domain.Location, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Location
	err := r.conn(dbc).
		Preload("Aisles", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC, name ASC")
		}).
		Preload("Aisles.Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Preload("Aisles.Products.Product").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("location.get_with_aisles", err)
	}
	return &row, nil
}

func (r *locationRepo) GetAll(dbc dbctx.Context) ([]*domain.Location, error) {
	var rows []*domain.Location
	if err := r.conn(dbc).Order("rank ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, MapError("location.get_all", err)
	}
	return rows, nil
}

func (r *locationRepo) GetByType(dbc dbctx.Context, locType domain.LocationType) ([]*domain.Location, error) {
	var rows []*domain.Location
	err := r.conn(dbc).
		Where("type = ?", locType).
		Order("rank ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapError("location.get_by_type", err)
	}
	return rows, nil
}

func (r *locationRepo) GetHome(dbc dbctx.Context) (*domain.Location, error) {
	var row domain.Location
	err := r.conn(dbc).Where("type = ?", domain.LocationTypeHome).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, MapError("location.get_home", err)
	}
	return &row, nil
}

func (r *locationRepo) GetPinnedShops(dbc dbctx.Context) ([]*domain.Location, error) {
	var rows []*domain.Location
	err := r.conn(dbc).
		Where("type = ? AND pinned = ?", domain.LocationTypeShop, true).
		Order("rank ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapError("location.get_pinned_shops", err)
	}
	return rows, nil
}

func (r *locationRepo) Add(dbc dbctx.Context, loc *domain.Location) error {
	if loc == nil {
		return nil
	}
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	return MapError("location.add", r.conn(dbc).Create(loc).Error)
}

func (r *locationRepo) Update(dbc dbctx.Context, loc *domain.Location) error {
	if loc == nil || loc.ID == uuid.Nil {
		return nil
	}
	return MapError("location.update", r.conn(dbc).
		Model(&domain.Location{}).
		Where("id = ?", loc.ID).
		Updates(map[string]any{
			"type":               loc.Type,
			"name":               loc.Name,
			"pinned":             loc.Pinned,
			"default_filter":     loc.DefaultFilter,
			"rank":               loc.Rank,
			"expanded":           loc.Expanded,
			"show_default_aisle": loc.ShowDefaultAisle,
		}).Error)
}

func (r *locationRepo) Remove(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return MapError("location.remove", r.conn(dbc).
		Where("id = ?", id).
		Delete(&domain.Location{}).Error)
}

func (r *locationRepo) UpdateRank(dbc dbctx.Context, id uuid.UUID, rank int) error {
	return MapError("location.update_rank", r.conn(dbc).
		Model(&domain.Location{}).
		Where("id = ?", id).
		Update("rank", rank).Error)
}

func (r *locationRepo) UpdateExpanded(dbc dbctx.Context, id uuid.UUID, expanded bool) error {
	return MapError("location.update_expanded", r.conn(dbc).
		Model(&domain.Location{}).
		Where("id = ?", id).
		Update("expanded", expanded).Error)
}

func (r *locationRepo) UpdateNoteID(dbc dbctx.Context, id uuid.UUID, noteID *uuid.UUID) error {
	return MapError("location.update_note_id", r.conn(dbc).
		Model(&domain.Location{}).
		Where("id = ?", id).
		Update("note_id", noteID).Error)
}

func (r *locationRepo) GetMaxRank(dbc dbctx.Context, locType domain.LocationType) (int, error) {
	var max int
	err := r.conn(dbc).
		Model(&domain.Location{}).
		Where("type = ?", locType).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, MapError("location.get_max_rank", err)
	}
	return max, nil
}
