// Package inventory persists the on-site stock counters, one row per
// tracked product.
package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sitestock/sitestock-backend/pkg/db/models"
	"github.com/sitestock/sitestock-backend/pkg/enums"
)

// Repository handles inventory persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAll returns every tracked product ordered by product key.
func (r *Repository) FindAll(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("product asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByProduct loads the counter row for a single product.
func (r *Repository) FindByProduct(ctx context.Context, product enums.Product) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("product = ?", product).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity overwrites the stored quantity for a product.
func (r *Repository) UpdateQuantity(ctx context.Context, product enums.Product, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product = ?", product).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		}).Error
}

// EnsureDefaults seeds the counter rows once. Existing rows keep their
// current quantities.
func (r *Repository) EnsureDefaults(ctx context.Context) error {
	defaults := []models.InventoryItem{
		{Product: enums.ProductIce, Quantity: 50, MinStock: 15},
		{Product: enums.ProductBottle, Quantity: 25, MinStock: 10},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product"}},
			DoNothing: true,
		}).
		Create(&defaults).Error
}

// Probe reports whether the inventory table exists yet. A false result
// means the schema has not been migrated.
func (r *Repository) Probe(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&models.InventoryItem{})
}
