package reviews

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// Summary aggregates the reviews of a single product.
type Summary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int64   `json:"total_count"`
}

// Repository persists product reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uint64) (*models.Review, error)
	UpdateContent(ctx context.Context, id uint64, rating float64, comment string) error
	Delete(ctx context.Context, id uint64) error
	ListByProduct(ctx context.Context, productID uint64) ([]models.Review, error)
	Summarize(ctx context.Context, productID uint64) (Summary, error)
	ProductSeller(ctx context.Context, productID uint64) (uint64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a review repository for the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("User").Create(review).Error
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) UpdateContent(ctx context.Context, id uint64, rating float64, comment string) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "comment": comment}).Error
}

func (r *repository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProduct returns reviews newest first.
func (r *repository) ListByProduct(ctx context.Context, productID uint64) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Summarize(ctx context.Context, productID uint64) (Summary, error) {
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
		return Summary{}, err
	}
	return Summary{AverageRating: row.Average.Float64, TotalCount: row.Total}, nil
}

// ProductSeller returns the seller owning productID.
func (r *repository) ProductSeller(ctx context.Context, productID uint64) (uint64, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("id", "seller_id").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return 0, err
	}
	return product.SellerID, nil
}
