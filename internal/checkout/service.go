package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/internal/address"
	"github.com/mercato-dev/mercato-backend/internal/cart"
	"github.com/mercato-dev/mercato-backend/internal/checkout/helpers"
	"github.com/mercato-dev/mercato-backend/internal/checkout/reservation"
	"github.com/mercato-dev/mercato-backend/internal/orders"
	product "github.com/mercato-dev/mercato-backend/internal/products"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, buyerID uint64, input Input) (*Result, error)
}

// Input is the shipping destination for every order of the checkout.
type Input struct {
	Address string
	City    string
}

// ServiceParams configure the checkout service.
type ServiceParams struct {
	Tx        txRunner
	Cart      cart.Repository
	Products  *product.Repository
	Orders    orders.Repository
	Addresses address.Repository
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	cart      cart.Repository
	products  *product.Repository
	orders    orders.Repository
	addresses address.Repository
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        params.Tx,
		cart:      params.Cart,
		products:  params.Products,
		orders:    params.Orders,
		addresses: params.Addresses,
		logg:      params.Logger,
	}, nil
}

// Execute converts the buyer's cart into one pending order per seller. Stock
// is checked for every line before anything is written; the whole checkout
// commits or rolls back as a unit.
func (s *service) Execute(ctx context.Context, buyerID uint64, input Input) (*Result, error) {
	if buyerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	destination, err := address.Normalize(address.Input{Address: input.Address, City: input.City})
	if err != nil {
		return nil, err
	}

	var created []models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cart.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		items, err := cartRepo.ListItems(ctx, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		requests := make([]reservation.StockRequest, 0, len(items))
		for _, item := range items {
			requests = append(requests, reservation.StockRequest{ProductID: item.ProductID, Qty: item.Quantity})
		}
		if err := reservation.ReserveStock(ctx, s.products.WithTx(tx), requests); err != nil {
			return err
		}

		shipTo, err := s.addresses.WithTx(tx).Create(ctx, buyerID, destination)
		if err != nil {
			return err
		}

		for _, group := range helpers.GroupCartItemsBySeller(items) {
			order := &models.Order{
				UserID:    buyerID,
				SellerID:  group.SellerID,
				AddressID: &shipTo.ID,
				Total:     group.Total.Round(2),
				Status:    enums.OrderStatusPending,
				Items:     helpers.BuildOrderItems(group.Items),
			}
			if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			order.Address = shipTo
			created = append(created, *order)
		}

		if err := cartRepo.Clear(ctx, buyerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Orders: make([]orders.OrderDTO, 0, len(created))}
	grand := decimal.Zero
	orderIDs := make([]uint64, 0, len(created))
	for _, order := range created {
		result.Orders = append(result.Orders, orders.ToOrderDTO(order))
		grand = grand.Add(order.Total)
		orderIDs = append(orderIDs, order.ID)
	}
	result.GrandTotal = grand.StringFixed(2)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"buyer_id":    buyerID,
		"order_ids":   orderIDs,
		"grand_total": result.GrandTotal,
	})
	s.logg.Info(logCtx, "checkout completed")
	return result, nil
}
