package orders

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// OrderDTO is the API representation of an order with its effective status.
type OrderDTO struct {
	ID          uint64            `json:"id"`
	BuyerID     uint64            `json:"buyer_id"`
	SellerID    uint64            `json:"seller_id"`
	Status      enums.OrderStatus `json:"status"`
	StatusLabel string            `json:"status_label"`
	Total       string            `json:"total"`
	Address     *AddressDTO       `json:"address,omitempty"`
	Items       []OrderItemDTO    `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
}

type OrderItemDTO struct {
	ID          uint64  `json:"id"`
	ProductID   *uint64 `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       string  `json:"price"`
	LineTotal   string  `json:"line_total"`
}

type AddressDTO struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

// ListResult is a cursor page of orders.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// RefreshResult summarizes a status sweep.
type RefreshResult struct {
	Scanned   int `json:"scanned"`
	Shipped   int `json:"shipped"`
	Delivered int `json:"delivered"`
	Skipped   int `json:"skipped"`
}

// Advanced returns how many orders changed status.
func (r RefreshResult) Advanced() int {
	return r.Shipped + r.Delivered
}

// ToOrderDTO maps an order with its items and address to the API shape.
func ToOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:          order.ID,
		BuyerID:     order.UserID,
		SellerID:    order.SellerID,
		Status:      order.Status,
		StatusLabel: order.Status.Label(),
		Total:       order.Total.StringFixed(2),
		CreatedAt:   order.CreatedAt,
		ConfirmedAt: order.ConfirmedAt,
		Items:       make([]OrderItemDTO, 0, len(order.Items)),
	}
	if order.Address != nil {
		dto.Address = &AddressDTO{Address: order.Address.Address, City: order.Address.City}
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return dto
}
