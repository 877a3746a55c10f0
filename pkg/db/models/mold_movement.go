package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// MoldMovement is one checkout/return cycle of a mold leaving the plant for
// repair or modification. At most one movement per mold may be checked out.
type MoldMovement struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MoldID             uuid.UUID            `gorm:"column:mold_id;type:uuid;not null;index"`
	Mold               *Mold                `gorm:"foreignKey:MoldID"`
	Status             enums.MovementStatus `gorm:"column:status;type:movement_status;not null;default:'checked_out'"`
	Destination        string               `gorm:"column:destination;not null"`
	Reason             *string              `gorm:"column:reason"`
	OutgoingDate       time.Time            `gorm:"column:outgoing_date;type:date;not null"`
	ExpectedReturnDate *time.Time           `gorm:"column:expected_return_date;type:date"`
	IncomingDate       *time.Time           `gorm:"column:incoming_date;type:date"`
	EstimatedCost      *decimal.Decimal     `gorm:"column:estimated_cost;type:numeric(14,2)"`
	ActualCost         *decimal.Decimal     `gorm:"column:actual_cost;type:numeric(14,2)"`
	RepairResult       *string              `gorm:"column:repair_result"`
	DocumentURL        *string              `gorm:"column:document_url"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
