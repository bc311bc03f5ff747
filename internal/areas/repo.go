// Package areas manages the destination areas movements are charged to.
package areas

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sitestock/sitestock-backend/pkg/db/models"
)

// DefaultNames are seeded on first boot, in this order. Reports group
// by area following this insertion order.
var DefaultNames = []string{
	"Administrativa",
	"Horno",
	"Producción",
	"Mantenimiento Eléctrico",
	"Mantenimiento General",
	"Mantenimiento Automotriz",
}

// Repository handles area persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to area operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAll returns every area in insertion order.
func (r *Repository) FindAll(ctx context.Context) ([]models.Area, error) {
	var list []models.Area
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// FindByID loads a single area.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Area, error) {
	var area models.Area
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&area).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

// Default returns the first seeded area, the fallback target for "in"
// movements.
func (r *Repository) Default(ctx context.Context) (*models.Area, error) {
	var area models.Area
	if err := r.db.WithContext(ctx).Order("id asc").First(&area).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

// Create persists a new area row.
func (r *Repository) Create(ctx context.Context, name string) (*models.Area, error) {
	area := models.Area{Name: name}
	if err := r.db.WithContext(ctx).Create(&area).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

// EnsureDefaults seeds the default areas once, keeping their order.
func (r *Repository) EnsureDefaults(ctx context.Context) error {
	for _, name := range DefaultNames {
		area := models.Area{Name: name}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).
			Create(&area).Error; err != nil {
			return err
		}
	}
	return nil
}

// Probe reports whether the areas table exists yet.
func (r *Repository) Probe(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&models.Area{})
}
