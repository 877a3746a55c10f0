package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialLowStockEvent is emitted when a material drops to or below its floor.
type MaterialLowStockEvent struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	Unit         string          `json:"unit"`
}

// ProductionTargetReachedEvent signals a work order meeting its target quantity.
// The order status is not changed by this event; completion stays manual.
type ProductionTargetReachedEvent struct {
	WorkOrderID uuid.UUID `json:"work_order_id"`
	OrderNo     string    `json:"order_no"`
	TargetQty   int       `json:"target_qty"`
	ProducedQty int       `json:"produced_qty"`
	ReachedAt   time.Time `json:"reached_at"`
}

// MoldReturnedEvent is emitted when a checked-out mold comes back from repair.
type MoldReturnedEvent struct {
	MoldID       uuid.UUID        `json:"mold_id"`
	MovementID   uuid.UUID        `json:"movement_id"`
	MoldCode     string           `json:"mold_code"`
	IncomingDate time.Time        `json:"incoming_date"`
	ActualCost   *decimal.Decimal `json:"actual_cost,omitempty"`
	RepairResult string           `json:"repair_result,omitempty"`
}

// NotificationRequestedEvent tells the worker to write an inbox row.
type NotificationRequestedEvent struct {
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Link    string     `json:"link,omitempty"`
}
