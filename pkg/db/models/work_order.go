package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// WorkOrder is a production run for one product on one machine.
type WorkOrder struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNo          string                `gorm:"column:order_no;not null;uniqueIndex"`
	ProductID        uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	Product          *Product              `gorm:"foreignKey:ProductID"`
	EquipmentID      *uuid.UUID            `gorm:"column:equipment_id;type:uuid"`
	Equipment        *Equipment            `gorm:"foreignKey:EquipmentID"`
	MoldID           *uuid.UUID            `gorm:"column:mold_id;type:uuid"`
	Status           enums.WorkOrderStatus `gorm:"column:status;type:work_order_status;not null;default:'pending'"`
	TargetQty        int                   `gorm:"column:target_qty;not null"`
	ProducedQty      int                   `gorm:"column:produced_qty;not null;default:0"`
	PlannedStartDate *time.Time            `gorm:"column:planned_start_date;type:date"`
	StartTime        *time.Time            `gorm:"column:start_time"`
	EndTime          *time.Time            `gorm:"column:end_time"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
