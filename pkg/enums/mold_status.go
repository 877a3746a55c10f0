package enums

import "fmt"

// MoldStatus maps to the mold_status enum in Postgres.
type MoldStatus string

const (
	MoldStatusAvailable       MoldStatus = "available"
	MoldStatusNeedsInspection MoldStatus = "needs_inspection"
	MoldStatusCheckedOut      MoldStatus = "checked_out"
	MoldStatusScrapped        MoldStatus = "scrapped"
)

var validMoldStatuses = []MoldStatus{
	MoldStatusAvailable,
	MoldStatusNeedsInspection,
	MoldStatusCheckedOut,
	MoldStatusScrapped,
}

// String implements fmt.Stringer.
func (m MoldStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MoldStatus.
func (m MoldStatus) IsValid() bool {
	for _, candidate := range validMoldStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMoldStatus converts raw input into a MoldStatus.
func ParseMoldStatus(value string) (MoldStatus, error) {
	for _, candidate := range validMoldStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mold status %q", value)
}
