package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sitestock/sitestock-backend/pkg/enums"
	"github.com/sitestock/sitestock-backend/pkg/types"
)

// Movement is a single recorded stock transfer. Rows are immutable once
// created and always reference exactly one area.
type Movement struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Type           enums.MovementType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	AreaID         int64              `gorm:"column:area_id;not null;index" json:"area_id"`
	Area           *Area              `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	IceQuantity    int                `gorm:"column:ice_quantity;not null;default:0" json:"ice_quantity"`
	BottleQuantity int                `gorm:"column:bottle_quantity;not null;default:0" json:"bottle_quantity"`
	ImageURL       string             `gorm:"column:image_url;not null" json:"image_url"`
	Notes          *string            `gorm:"column:notes" json:"notes,omitempty"`
	DeviceInfo     types.DeviceInfo   `gorm:"column:device_info;type:jsonb" json:"device_info"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Movement) TableName() string { return "movements" }

// AreaName resolves the joined area name, falling back to the sentinel
// bucket used by the reports when the reference is orphaned.
func (m Movement) AreaName() string {
	if m.Area != nil && m.Area.Name != "" {
		return m.Area.Name
	}
	return AreaNameOrphaned
}

// AreaNameOrphaned labels movements whose area row can no longer be resolved.
const AreaNameOrphaned = "Sin área"
