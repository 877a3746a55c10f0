package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductionRecord is one reported production increment on a work order.
// Consumption math replays these rows per day.
type ProductionRecord struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkOrderID  uuid.UUID  `gorm:"column:work_order_id;type:uuid;not null;index"`
	WorkOrder    *WorkOrder `gorm:"foreignKey:WorkOrderID"`
	ReportDate   time.Time  `gorm:"column:report_date;type:date;not null;index"`
	Quantity     int        `gorm:"column:quantity;not null"`
	OperatorName *string    `gorm:"column:operator_name"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}
