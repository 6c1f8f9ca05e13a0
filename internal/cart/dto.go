package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// ItemDTO is a cart line with its live product price.
type ItemDTO struct {
	ID          uint64    `json:"id"`
	ProductID   uint64    `json:"product_id"`
	ProductName string    `json:"product_name"`
	SellerID    uint64    `json:"seller_id"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Available   int       `json:"available"`
	LineTotal   string    `json:"line_total"`
	AddedAt     time.Time `json:"added_at"`
}

// CartDTO is the buyer's cart.
type CartDTO struct {
	Items     []ItemDTO `json:"items"`
	ItemCount int       `json:"item_count"`
	Total     string    `json:"total"`
}

func toCartDTO(items []models.CartItem) CartDTO {
	out := CartDTO{Items: make([]ItemDTO, 0, len(items))}
	total := decimal.Zero
	for _, item := range items {
		dto := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		}
		line := decimal.Zero
		if item.Product != nil {
			dto.ProductName = item.Product.Name
			dto.SellerID = item.Product.SellerID
			dto.Available = item.Product.Quantity
			dto.UnitPrice = item.Product.Price.StringFixed(2)
			line = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		dto.LineTotal = line.StringFixed(2)
		total = total.Add(line)
		out.ItemCount += item.Quantity
		out.Items = append(out.Items, dto)
	}
	out.Total = total.StringFixed(2)
	return out
}
