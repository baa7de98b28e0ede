package enums

import "fmt"

// OutboxStatus tracks delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

var validOutboxStatuses = []OutboxStatus{
	OutboxStatusPending,
	OutboxStatusPublished,
	OutboxStatusFailed,
}

// String implements fmt.Stringer.
func (o OutboxStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxStatus.
func (o OutboxStatus) IsValid() bool {
	for _, candidate := range validOutboxStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxStatus converts raw input into an OutboxStatus.
func ParseOutboxStatus(value string) (OutboxStatus, error) {
	for _, candidate := range validOutboxStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox status %q", value)
}

// EventType names the domain events published through the outbox.
type EventType string

const (
	EventOrderCreated      EventType = "order_created"
	EventOrderStateChanged EventType = "order_state_changed"
	EventOrderCanceled     EventType = "order_canceled"
	EventStockAdjusted     EventType = "stock_adjusted"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// AggregateType names the entity an outbox event is anchored to.
type AggregateType string

const (
	AggregateOrder   AggregateType = "order"
	AggregateProduct AggregateType = "product"
	AggregateCart    AggregateType = "cart"
)

// String implements fmt.Stringer.
func (a AggregateType) String() string {
	return string(a)
}
