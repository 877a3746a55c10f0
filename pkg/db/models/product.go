package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a molded part definition. Weights are in grams; a shot consumes
// the part weight plus the runner weight per unit produced.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string           `gorm:"column:code;not null;uniqueIndex"`
	Name              string           `gorm:"column:name;not null"`
	MaterialID        *uuid.UUID       `gorm:"column:material_id;type:uuid"`
	Material          *Material        `gorm:"foreignKey:MaterialID"`
	UnitWeightGrams   decimal.Decimal  `gorm:"column:unit_weight_grams;type:numeric(10,2);not null;default:0"`
	RunnerWeightGrams decimal.Decimal  `gorm:"column:runner_weight_grams;type:numeric(10,2);not null;default:0"`
	UnitPrice         *decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2)"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
