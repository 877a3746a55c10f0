package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// Equipment is an injection machine. CurrentWorkOrderID is set exactly while
// the linked work order is running.
type Equipment struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string                `gorm:"column:code;not null;uniqueIndex"`
	Name               string                `gorm:"column:name;not null"`
	Status             enums.EquipmentStatus `gorm:"column:status;type:equipment_status;not null;default:'idle'"`
	CurrentWorkOrderID *uuid.UUID            `gorm:"column:current_work_order_id;type:uuid"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
