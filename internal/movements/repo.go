// Package movements implements the submission workflow: validation,
// passcode authorization for entries, persistence, and stock updates.
package movements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sitestock/sitestock-backend/pkg/db/models"
	"github.com/sitestock/sitestock-backend/pkg/enums"
	"github.com/sitestock/sitestock-backend/pkg/types"
)

// Repository handles movement persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to movement operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateMovementDTO carries a validated movement into persistence.
type CreateMovementDTO struct {
	Type           enums.MovementType
	AreaID         int64
	IceQuantity    int
	BottleQuantity int
	ImageURL       string
	Notes          *string
	DeviceInfo     types.DeviceInfo
}

// Insert stores the movement and returns the row with its generated id.
func (r *Repository) Insert(ctx context.Context, dto CreateMovementDTO) (*models.Movement, error) {
	movement := &models.Movement{
		ID:             uuid.New(),
		Type:           dto.Type,
		AreaID:         dto.AreaID,
		IceQuantity:    dto.IceQuantity,
		BottleQuantity: dto.BottleQuantity,
		ImageURL:       dto.ImageURL,
		Notes:          dto.Notes,
		DeviceInfo:     dto.DeviceInfo,
	}
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

// ListRecent returns the newest movements with their area preloaded.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.Movement, error) {
	var list []models.Movement
	q := r.db.WithContext(ctx).Preload("Area").Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListAll returns every movement oldest first, the order reports fold in.
func (r *Repository) ListAll(ctx context.Context) ([]models.Movement, error) {
	var list []models.Movement
	if err := r.db.WithContext(ctx).
		Preload("Area").
		Order("created_at asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Probe reports whether the movements table exists yet.
func (r *Repository) Probe(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&models.Movement{})
}
