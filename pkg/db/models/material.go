package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Material is a raw-material master record. CurrentStock is only ever written
// by the ledger operations in internal/materials.
type Material struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Spec         *string         `gorm:"column:spec"`
	Unit         string          `gorm:"column:unit;not null;default:'kg'"`
	CurrentStock decimal.Decimal `gorm:"column:current_stock;type:numeric(14,3);not null;default:0"`
	MinStock     decimal.Decimal `gorm:"column:min_stock;type:numeric(14,3);not null;default:0"`
	SupplierID   *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
