package models

import (
	"time"

	"github.com/sitestock/sitestock-backend/pkg/enums"
)

// InventoryItem holds the on-hand count and alert threshold per product.
// One row per product; the quantity is only mutated by the movement workflow.
type InventoryItem struct {
	ID        int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Product   enums.Product `gorm:"column:product;type:varchar(20);uniqueIndex;not null" json:"product"`
	Quantity  int           `gorm:"column:quantity;not null;default:0" json:"quantity"`
	MinStock  int           `gorm:"column:min_stock;not null;default:0" json:"min_stock"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName keeps the historical table name from the hosted backend.
func (InventoryItem) TableName() string { return "inventory" }

// IsLow reports whether the item sits at or under its configured minimum.
func (i InventoryItem) IsLow() bool {
	return i.Quantity <= i.MinStock
}
