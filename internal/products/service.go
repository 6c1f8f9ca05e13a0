package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 5000
	maxQuantity          = 1_000_000
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.NewFromInt(1_000_000)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CatalogResolver resolves a brand or category name to its row, creating it
// when missing, inside the caller's transaction.
type CatalogResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, kind enums.CatalogKind, name string) (*models.CatalogEntry, error)
}

// RatingRefresher recomputes and stores a seller's rating.
type RatingRefresher interface {
	Refresh(ctx context.Context, tx *gorm.DB, sellerID uint64) (float64, error)
}

// CreateInput carries the fields of a new listing.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Brand       *string
	Category    *string
	ImageURL    *string
}

// UpdateInput carries a partial listing update. Nil fields are left as is.
// An empty Brand or Category string clears the association.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Brand       *string
	Category    *string
	ImageURL    *string
}

// Service exposes product listing writes and reads.
type Service interface {
	Create(ctx context.Context, sellerID uint64, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, sellerID, productID uint64, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, sellerID, productID uint64) error
	Get(ctx context.Context, productID uint64) (*ProductDetailDTO, error)
	Search(ctx context.Context, filters SearchFilters, params pagination.Params) (*SearchResult, error)
}

// ServiceParams configure the product service.
type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Catalog CatalogResolver
	Ratings RatingRefresher
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog CatalogResolver
	ratings RatingRefresher
	logg    *logger.Logger
}

// NewService builds a product service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("rating refresher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		catalog: params.Catalog,
		ratings: params.Ratings,
		logg:    params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, sellerID uint64, input CreateInput) (*ProductDTO, error) {
	if sellerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Quantity < 1 || input.Quantity > maxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 1000000")
	}

	var created *models.Product
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product := &models.Product{
			SellerID:    sellerID,
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Price:       input.Price.Round(2),
			Quantity:    input.Quantity,
			ImageURL:    normalizeOptional(input.ImageURL),
		}
		if product.BrandID, err = s.resolve(ctx, tx, enums.CatalogKindBrand, input.Brand); err != nil {
			return err
		}
		if product.CategoryID, err = s.resolve(ctx, tx, enums.CatalogKindCategory, input.Category); err != nil {
			return err
		}
		if _, err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		created, err = repo.FindByID(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": created.ID, "seller_id": sellerID})
	s.logg.Info(logCtx, "product created")

	dto := toProductDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, sellerID, productID uint64, input UpdateInput) (*ProductDTO, error) {
	if sellerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, sellerID, productID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name, err := validateName(*input.Name)
			if err != nil {
				return err
			}
			product.Name = name
		}
		if input.Description != nil {
			if err := validateDescription(*input.Description); err != nil {
				return err
			}
			product.Description = strings.TrimSpace(*input.Description)
		}
		if input.Price != nil {
			if err := validatePrice(*input.Price); err != nil {
				return err
			}
			product.Price = input.Price.Round(2)
		}
		if input.Quantity != nil {
			if *input.Quantity < 0 || *input.Quantity > maxQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 0 and 1000000")
			}
			product.Quantity = *input.Quantity
		}
		if input.ImageURL != nil {
			product.ImageURL = normalizeOptional(input.ImageURL)
		}
		if input.Brand != nil {
			if product.BrandID, err = s.resolve(ctx, tx, enums.CatalogKindBrand, input.Brand); err != nil {
				return err
			}
		}
		if input.Category != nil {
			if product.CategoryID, err = s.resolve(ctx, tx, enums.CatalogKindCategory, input.Category); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		updated, err = repo.FindByID(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID, "seller_id": sellerID})
	s.logg.Info(logCtx, "product updated")

	dto := toProductDTO(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, sellerID, productID uint64) error {
	if sellerID == 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOwned(ctx, repo, sellerID, productID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		if _, err := s.ratings.Refresh(ctx, tx, sellerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh seller rating")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID, "seller_id": sellerID})
	s.logg.Info(logCtx, "product deleted")
	return nil
}

func (s *service) Get(ctx context.Context, productID uint64) (*ProductDetailDTO, error) {
	if productID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	summary, err := s.repo.ReviewSummary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}
	dto := toProductDetailDTO(*product, summary)
	return &dto, nil
}

func (s *service) Search(ctx context.Context, filters SearchFilters, params pagination.Params) (*SearchResult, error) {
	filters.Query = strings.TrimSpace(filters.Query)
	filters.Brand = strings.TrimSpace(filters.Brand)
	filters.Category = strings.TrimSpace(filters.Category)
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}

	window, err := params.Resolve()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.Search(ctx, filters, window.BeforeID, window.Fetch())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}

	rows, next := pagination.Trim(window, rows, func(p models.Product) uint64 { return p.ID })
	result := &SearchResult{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Products = append(result.Products, toProductDTO(row))
	}
	return result, nil
}

func (s *service) loadOwned(ctx context.Context, repo *Repository, sellerID, productID uint64) (*models.Product, error) {
	if productID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to seller")
	}
	return product, nil
}

// resolve maps an optional catalog name to an id. Nil or blank names clear the link.
func (s *service) resolve(ctx context.Context, tx *gorm.DB, kind enums.CatalogKind, name *string) (*uint64, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	entry, err := s.catalog.Resolve(ctx, tx, kind, *name)
	if err != nil {
		return nil, err
	}
	id := entry.ID
	return &id, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(name) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is too long")
	}
	return name, nil
}

func validateDescription(raw string) error {
	if len(strings.TrimSpace(raw)) > maxDescriptionLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is too long")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.LessThan(minPrice) || price.GreaterThan(maxPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be between 0.01 and 1000000")
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
