package orders

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

const (
	// ShipAfter is the time after confirmation at which an order counts as shipped.
	ShipAfter = 2 * 24 * time.Hour
	// DeliverAfter is the time after confirmation at which an order counts as delivered.
	DeliverAfter = 5 * 24 * time.Hour
)

// AdvanceStatus returns order with its status moved forward according to the
// time elapsed since confirmation. It performs no I/O; callers persist the
// result. Pending and delivered orders, and orders without a confirmation
// timestamp, are returned unchanged. The status never moves backwards.
func AdvanceStatus(order models.Order, now time.Time) models.Order {
	if order.ConfirmedAt == nil {
		return order
	}
	if order.Status != enums.OrderStatusConfirmed && order.Status != enums.OrderStatusShipped {
		return order
	}

	elapsed := now.Sub(*order.ConfirmedAt)
	target := order.Status
	switch {
	case elapsed >= DeliverAfter:
		target = enums.OrderStatusDelivered
	case elapsed >= ShipAfter:
		target = enums.OrderStatusShipped
	}
	if target.Rank() > order.Status.Rank() {
		order.Status = target
	}
	return order
}
