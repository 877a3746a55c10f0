package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// Mold is an injection mold asset.
type Mold struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string           `gorm:"column:code;not null;uniqueIndex"`
	Name          string           `gorm:"column:name;not null"`
	Status        enums.MoldStatus `gorm:"column:status;type:mold_status;not null;default:'available'"`
	CavityCount   int              `gorm:"column:cavity_count;not null;default:1"`
	Location      *string          `gorm:"column:location"`
	LastCheckDate *time.Time       `gorm:"column:last_check_date;type:date"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
