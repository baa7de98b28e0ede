package orders

import (
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// statusTransitions is the forward edge set of the order state machine.
// The cancelled edge is owned by CancelOrder, which compensates stock
// and payment; UpdateStatus refuses it outright.
var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusPaid},
	enums.OrderStatusProcessing: {enums.OrderStatusPaid, enums.OrderStatusShipped},
	enums.OrderStatusPaid:       {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCompleted},
	enums.OrderStatusDelivered:  {enums.OrderStatusCompleted},
}

// canTransition reports whether UpdateStatus may move current to target.
func canTransition(current, target enums.OrderStatus) bool {
	for _, allowed := range statusTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// cancellableStatuses are the states CancelOrder accepts. Delivered and
// completed orders are past the point of cancellation; a cancelled
// order cannot cancel again. The cancel UPDATE is predicated on this
// set so a racing transition can never double-run the compensation.
var cancellableStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusProcessing,
	enums.OrderStatusPaid,
	enums.OrderStatusShipped,
}

func cancellable(current enums.OrderStatus) bool {
	for _, status := range cancellableStatuses {
		if status == current {
			return true
		}
	}
	return false
}
