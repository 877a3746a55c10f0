package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomingRecord is one raw-material delivery added to stock.
type IncomingRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialID  uuid.UUID       `gorm:"column:material_id;type:uuid;not null;index"`
	Material    *Material       `gorm:"foreignKey:MaterialID"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	ArrivalDate time.Time       `gorm:"column:arrival_date;type:date;not null"`
	SupplierID  *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	BatchNo     *string         `gorm:"column:batch_no"`
	Note        *string         `gorm:"column:note"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
