package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

const defaultRefreshBatch = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order reads, the seller confirmation and the status sweep.
type Service interface {
	Confirm(ctx context.Context, sellerID, orderID uint64) (*OrderDTO, error)
	RefreshStatuses(ctx context.Context) (RefreshResult, error)
	GetOrder(ctx context.Context, actorID uint64, role enums.UserRole, orderID uint64) (*OrderDTO, error)
	ListBuyerOrders(ctx context.Context, buyerID uint64, params pagination.Params) (*ListResult, error)
	ListSellerOrders(ctx context.Context, sellerID uint64, params pagination.Params) (*ListResult, error)
}

// ServiceParams configure the orders service.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Logger       *logger.Logger
	RefreshBatch int
}

type service struct {
	repo  Repository
	tx    txRunner
	logg  *logger.Logger
	batch int
	now   func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batch := params.RefreshBatch
	if batch <= 0 {
		batch = defaultRefreshBatch
	}
	return &service{
		repo:  params.Repo,
		tx:    params.Tx,
		logg:  params.Logger,
		batch: batch,
		now:   time.Now,
	}, nil
}

func (s *service) Confirm(ctx context.Context, sellerID, orderID uint64) (*OrderDTO, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if sellerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
		if order.Status == enums.OrderStatusConfirmed {
			confirmed = order
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be confirmed while pending").
				WithDetails(map[string]any{"status": order.Status})
		}

		at := s.now().UTC()
		ok, err := repo.ConfirmPending(ctx, order.ID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		order.Status = enums.OrderStatusConfirmed
		order.ConfirmedAt = &at
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "seller_id": sellerID})
	s.logg.Info(logCtx, "order confirmed")

	dto := ToOrderDTO(AdvanceStatus(*confirmed, s.now()))
	return &dto, nil
}

// RefreshStatuses applies AdvanceStatus to every confirmed or shipped order
// and persists the orders whose status moved. Each write is guarded on the
// status that was read, so a concurrent sweep never moves an order backwards.
func (s *service) RefreshStatuses(ctx context.Context) (RefreshResult, error) {
	var (
		result RefreshResult
		errs   error
		lastID uint64
	)
	now := s.now().UTC()

	for {
		batch, err := s.repo.FindAdvanceable(ctx, lastID, s.batch)
		if err != nil {
			return result, multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advanceable orders"))
		}
		for _, order := range batch {
			lastID = order.ID
			result.Scanned++

			advanced := AdvanceStatus(order, now)
			if advanced.Status == order.Status {
				continue
			}
			ok, err := s.repo.UpdateStatusIf(ctx, order.ID, order.Status, advanced.Status)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("advance order %d: %w", order.ID, err))
				continue
			}
			if !ok {
				result.Skipped++
				continue
			}
			switch advanced.Status {
			case enums.OrderStatusShipped:
				result.Shipped++
			case enums.OrderStatusDelivered:
				result.Delivered++
			}
		}
		if len(batch) < s.batch {
			break
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"shipped":   result.Shipped,
		"delivered": result.Delivered,
		"skipped":   result.Skipped,
	})
	s.logg.Info(logCtx, "order status refresh complete")

	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "some orders could not be advanced")
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, actorID uint64, role enums.UserRole, orderID uint64) (*OrderDTO, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	switch role {
	case enums.UserRoleAdmin:
	case enums.UserRoleBuyer:
		if order.UserID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
	case enums.UserRoleSeller:
		if order.SellerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	dto := ToOrderDTO(AdvanceStatus(*order, s.now()))
	return &dto, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uint64, params pagination.Params) (*ListResult, error) {
	return s.list(ctx, buyerID, params, s.repo.ListByBuyer)
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uint64, params pagination.Params) (*ListResult, error) {
	return s.list(ctx, sellerID, params, s.repo.ListBySeller)
}

type listFn func(ctx context.Context, ownerID uint64, beforeID uint64, limit int) ([]models.Order, error)

func (s *service) list(ctx context.Context, ownerID uint64, params pagination.Params, fetch listFn) (*ListResult, error) {
	if ownerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	window, err := params.Resolve()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := fetch(ctx, ownerID, window.BeforeID, window.Fetch())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	rows, next := pagination.Trim(window, rows, func(o models.Order) uint64 { return o.ID })
	result := &ListResult{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	now := s.now()
	for _, order := range rows {
		result.Orders = append(result.Orders, ToOrderDTO(AdvanceStatus(order, now)))
	}
	return result, nil
}
