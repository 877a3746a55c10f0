package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// InventoryTransaction is one finished-goods move, in or out. Snapshots are
// rebuilt by replaying these rows, so they are never updated in place.
type InventoryTransaction struct {
	ID              uuid.UUID                      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type            enums.InventoryTransactionType `gorm:"column:type;type:inventory_transaction_type;not null"`
	ItemCode        *string                        `gorm:"column:item_code;index"`
	ItemName        string                         `gorm:"column:item_name;not null"`
	Unit            *string                        `gorm:"column:unit"`
	Quantity        decimal.Decimal                `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice       *decimal.Decimal               `gorm:"column:unit_price;type:numeric(14,2)"`
	TransactionDate time.Time                      `gorm:"column:transaction_date;type:date;not null;index"`
	ClientName      *string                        `gorm:"column:client_name"`
	Note            *string                        `gorm:"column:note"`
	CreatedAt       time.Time                      `gorm:"column:created_at;autoCreateTime"`
}
