package enums

import "fmt"

// CartStatus tracks whether a cart is still being edited or has been checked out.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusConverted,
	CartStatusAbandoned,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}

// CartWarning identifies a non-fatal adjustment made during cart sync.
type CartWarning string

const (
	CartWarningQuantityClamped CartWarning = "quantity_clamped"
	CartWarningRemovedInactive CartWarning = "removed_inactive"
	CartWarningRemovedNotFound CartWarning = "removed_not_found"
)

// String implements fmt.Stringer.
func (w CartWarning) String() string {
	return string(w)
}
