package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageRecord is one material draw from stock, dated by the production day it
// belongs to rather than the moment it was entered.
type UsageRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialID  uuid.UUID       `gorm:"column:material_id;type:uuid;not null;index"`
	Material    *Material       `gorm:"foreignKey:MaterialID"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	UsageDate   time.Time       `gorm:"column:usage_date;type:date;not null;index"`
	WorkOrderNo *string         `gorm:"column:work_order_no"`
	Note        *string         `gorm:"column:note"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
