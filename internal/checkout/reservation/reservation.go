package reservation

import (
	"context"
	"sort"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

// StockStore reads and conditionally decrements product stock. It must be
// bound to the checkout transaction.
type StockStore interface {
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Product, error)
	DecrementStock(ctx context.Context, productID uint64, qty int) (bool, error)
}

// StockRequest asks for qty units of a product.
type StockRequest struct {
	ProductID uint64
	Qty       int
}

// Shortage describes a product that cannot cover the requested quantity.
type Shortage struct {
	ProductID uint64 `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ReserveStock verifies every request against current stock and only then
// decrements. Any shortfall aborts before a single row is touched, and the
// error lists every short product.
func ReserveStock(ctx context.Context, store StockStore, requests []StockRequest) error {
	if len(requests) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no stock requested")
	}

	wanted := make(map[uint64]int, len(requests))
	ids := make([]uint64, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": req.ProductID})
		}
		if _, seen := wanted[req.ProductID]; !seen {
			ids = append(ids, req.ProductID)
		}
		wanted[req.ProductID] += req.Qty
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := store.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	var shortages []Shortage
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			shortages = append(shortages, Shortage{ProductID: id, Requested: wanted[id]})
			continue
		}
		if product.Quantity < wanted[id] {
			shortages = append(shortages, Shortage{
				ProductID: id,
				Name:      product.Name,
				Requested: wanted[id],
				Available: product.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return insufficient(shortages)
	}

	for _, id := range ids {
		ok, err := store.DecrementStock(ctx, id, wanted[id])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			// stock moved between the check and the write
			return insufficient([]Shortage{{
				ProductID: id,
				Name:      products[id].Name,
				Requested: wanted[id],
			}})
		}
	}
	return nil
}

func insufficient(shortages []Shortage) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{"shortages": shortages})
}
