package enums

import "fmt"

// StockMovementReason records why a product quantity changed.
type StockMovementReason string

const (
	StockMovementReserve      StockMovementReason = "reserve"
	StockMovementRelease      StockMovementReason = "release"
	StockMovementManualAdjust StockMovementReason = "manual_adjust"
	StockMovementRestock      StockMovementReason = "restock"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementReserve,
	StockMovementRelease,
	StockMovementManualAdjust,
	StockMovementRestock,
}

// String implements fmt.Stringer.
func (r StockMovementReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StockMovementReason.
func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into a StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
