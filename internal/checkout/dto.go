package checkout

import "github.com/mercato-dev/mercato-backend/internal/orders"

// Result is returned by a successful checkout: one order per seller.
type Result struct {
	Orders     []orders.OrderDTO `json:"orders"`
	GrandTotal string            `json:"grand_total"`
}
