package enums

import "fmt"

// WorkOrderStatus tracks the lifecycle of a production work order.
type WorkOrderStatus string

const (
	WorkOrderStatusPending   WorkOrderStatus = "pending"
	WorkOrderStatusRunning   WorkOrderStatus = "running"
	WorkOrderStatusCompleted WorkOrderStatus = "completed"
	WorkOrderStatusCancelled WorkOrderStatus = "cancelled"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusPending,
	WorkOrderStatusRunning,
	WorkOrderStatusCompleted,
	WorkOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (w WorkOrderStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (w WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the lifecycle.
func (w WorkOrderStatus) IsTerminal() bool {
	return w == WorkOrderStatusCompleted || w == WorkOrderStatusCancelled
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}
