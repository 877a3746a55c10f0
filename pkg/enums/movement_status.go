package enums

import "fmt"

// MovementStatus tracks the lifecycle of a mold checkout movement.
type MovementStatus string

const (
	MovementStatusCheckedOut MovementStatus = "checked_out"
	MovementStatusReturned   MovementStatus = "returned"
)

var validMovementStatuses = []MovementStatus{
	MovementStatusCheckedOut,
	MovementStatusReturned,
}

// String implements fmt.Stringer.
func (m MovementStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementStatus.
func (m MovementStatus) IsValid() bool {
	for _, candidate := range validMovementStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementStatus converts raw input into a MovementStatus.
func ParseMovementStatus(value string) (MovementStatus, error) {
	for _, candidate := range validMovementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement status %q", value)
}
