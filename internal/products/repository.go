package product

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// SearchFilters narrows product listings. Empty fields are ignored.
type SearchFilters struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Brand    string
	Category string
	SellerID uint64
}

// ReviewSummary aggregates the reviews of a single product.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int64   `json:"total_count"`
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product with its brand and category.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDetail loads the product with brand, category and seller identity.
func (r *Repository) FindDetail(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Preload("Seller.User").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Product, error) {
	out := make(map[uint64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Seller", "Brand", "Category", "Reviews").Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update writes the mutable product columns.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"quantity":    product.Quantity,
			"brand_id":    product.BrandID,
			"category_id": product.CategoryID,
			"image_url":   product.ImageURL,
		}).Error
}

// Delete removes the product along with its reviews and cart lines, and
// detaches historical order items.
func (r *Repository) Delete(ctx context.Context, id uint64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
		return err
	}
	res := tx.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts qty from the product only when enough stock is
// available. It reports false when the product is missing or short.
func (r *Repository) DecrementStock(ctx context.Context, id uint64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Search returns products newest first, strictly before beforeID when set.
func (r *Repository) Search(ctx context.Context, filters SearchFilters, beforeID uint64, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Brand").
		Preload("Category")

	if filters.Query != "" {
		pattern := db.ContainsPattern(filters.Query)
		q = q.Where("("+db.ILikeClause("products.name")+" OR "+db.ILikeClause("products.description")+")", pattern, pattern)
	}
	if filters.MinPrice != nil {
		q = q.Where("products.price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("products.price <= ?", *filters.MaxPrice)
	}
	if filters.Brand != "" {
		q = q.Joins("JOIN brands ON brands.id = products.brand_id").
			Where(db.ILikeClause("brands.name"), db.ContainsPattern(filters.Brand))
	}
	if filters.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where(db.ILikeClause("categories.name"), db.ContainsPattern(filters.Category))
	}
	if filters.SellerID > 0 {
		q = q.Where("products.seller_id = ?", filters.SellerID)
	}
	if beforeID > 0 {
		q = q.Where("products.id < ?", beforeID)
	}

	var products []models.Product
	if err := q.Order("products.id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ReviewSummary returns the average rating and review count of a product.
func (r *Repository) ReviewSummary(ctx context.Context, productID uint64) (ReviewSummary, error) {
	var row struct {
		Average sql.NullFloat64
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return ReviewSummary{}, err
	}
	return ReviewSummary{AverageRating: row.Average.Float64, TotalCount: row.Total}, nil
}
