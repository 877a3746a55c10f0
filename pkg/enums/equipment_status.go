package enums

import "fmt"

// EquipmentStatus maps to the equipment_status enum in Postgres.
type EquipmentStatus string

const (
	EquipmentStatusIdle       EquipmentStatus = "idle"
	EquipmentStatusRunning    EquipmentStatus = "running"
	EquipmentStatusInspection EquipmentStatus = "inspection"
	EquipmentStatusBroken     EquipmentStatus = "broken"
)

var validEquipmentStatuses = []EquipmentStatus{
	EquipmentStatusIdle,
	EquipmentStatusRunning,
	EquipmentStatusInspection,
	EquipmentStatusBroken,
}

// String implements fmt.Stringer.
func (e EquipmentStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EquipmentStatus.
func (e EquipmentStatus) IsValid() bool {
	for _, candidate := range validEquipmentStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEquipmentStatus converts raw input into an EquipmentStatus.
func ParseEquipmentStatus(value string) (EquipmentStatus, error) {
	for _, candidate := range validEquipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment status %q", value)
}
