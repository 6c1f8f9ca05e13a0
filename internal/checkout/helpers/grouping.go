package helpers

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// SellerGroup holds the cart lines that become a single seller's order.
type SellerGroup struct {
	SellerID uint64
	Items    []models.CartItem
	Total    decimal.Decimal
}

// GroupCartItemsBySeller groups cart lines by the seller of their product and
// totals each group at the current product price. Groups are ordered by
// seller id. Lines without a loaded product are skipped.
func GroupCartItemsBySeller(items []models.CartItem) []SellerGroup {
	index := make(map[uint64]int)
	groups := make([]SellerGroup, 0)
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		sellerID := item.Product.SellerID
		pos, ok := index[sellerID]
		if !ok {
			pos = len(groups)
			index[sellerID] = pos
			groups = append(groups, SellerGroup{SellerID: sellerID, Total: decimal.Zero})
		}
		groups[pos].Items = append(groups[pos].Items, item)
		groups[pos].Total = groups[pos].Total.Add(LineTotal(item))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].SellerID < groups[j].SellerID })
	return groups
}

// LineTotal returns price times quantity for a cart line.
func LineTotal(item models.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// BuildOrderItems freezes product name and price onto order lines.
func BuildOrderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		line := models.OrderItem{
			ProductID: &productID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.Price = item.Product.Price
		}
		out = append(out, line)
	}
	return out
}
