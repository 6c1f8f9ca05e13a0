package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

const maxLineQuantity = 1_000_000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a buyer's cart.
type Service interface {
	Get(ctx context.Context, userID uint64) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID uint64, quantity int) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uint64, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uint64) (*CartDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a cart service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID uint64) (*CartDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.load(ctx, s.repo, userID)
}

// AddItem adds quantity of productID, merging with an existing line. The
// merged quantity may not exceed available stock.
func (s *service) AddItem(ctx context.Context, userID, productID uint64, quantity int) (*CartDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.SellerID == userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot add own product to cart")
		}

		existing, err := repo.FindByProduct(ctx, userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if err := checkStock(product, total); err != nil {
			return err
		}

		if existing != nil {
			err = repo.UpdateQuantity(ctx, existing.ID, total)
		} else {
			err = repo.CreateItem(ctx, &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		out, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID, "product_id": productID, "quantity": quantity})
	s.logg.Debug(logCtx, "cart item added")
	return out, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uint64, quantity int) (*CartDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.loadOwned(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if item.Product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err := checkStock(item.Product, quantity); err != nil {
			return err
		}
		if err := repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		out, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uint64) (*CartDTO, error) {
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.loadOwned(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		out, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) load(ctx context.Context, repo Repository, userID uint64) (*CartDTO, error) {
	items, err := repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	dto := toCartDTO(items)
	return &dto, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, userID, itemID uint64) (*models.CartItem, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > maxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 1000000")
	}
	return nil
}

func checkStock(product *models.Product, requested int) error {
	if requested > product.Quantity {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": product.ID,
				"requested":  requested,
				"available":  product.Quantity,
			})
	}
	return nil
}
