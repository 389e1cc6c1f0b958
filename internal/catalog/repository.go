package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nmorales-dev/storefront-backend/pkg/db/models"
	"github.com/nmorales-dev/storefront-backend/pkg/enums"
	"github.com/nmorales-dev/storefront-backend/pkg/pagination"
)

// ItemListFilters narrows the item listing query.
type ItemListFilters struct {
	Query    string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     enums.ItemSort
}

// Repository wires together item persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem updates an existing item row.
func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item by ID. Cart lines referencing the item are
// removed by the cascading foreign key.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Item{}).Error
}

// ListItems returns one page of active items matching the filters along with
// the total match count.
func (r *Repository) ListItems(ctx context.Context, filters ItemListFilters, page pagination.Params) ([]models.Item, int64, error) {
	page = pagination.Normalize(page)

	qb := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("is_active = ?", true)

	if filters.Category != nil && *filters.Category != "" {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if filters.MinPrice != nil {
		qb = qb.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		qb = qb.Where("price <= ?", *filters.MaxPrice)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filters.Sort {
	case enums.ItemSortPriceAsc:
		qb = qb.Order("price ASC").Order("id ASC")
	case enums.ItemSortPriceDesc:
		qb = qb.Order("price DESC").Order("id ASC")
	default:
		qb = qb.Order("created_at DESC").Order("id DESC")
	}

	var rows []models.Item
	err := qb.Offset(page.Offset()).Limit(pagination.NormalizeLimit(page.Limit)).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
