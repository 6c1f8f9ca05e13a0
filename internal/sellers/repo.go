package sellers

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// Repository reads seller profile data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSeller(ctx context.Context, sellerID uint64) (*models.UserSeller, error)
	CountProducts(ctx context.Context, sellerID uint64) (int64, error)
	CountReviews(ctx context.Context, sellerID uint64) (int64, error)
	ListSellerIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sellers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSeller(ctx context.Context, sellerID uint64) (*models.UserSeller, error) {
	var seller models.UserSeller
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", sellerID).
		First(&seller).Error
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repository) CountProducts(ctx context.Context, sellerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("seller_id = ?", sellerID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountReviews(ctx context.Context, sellerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("reviews").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("products.seller_id = ?", sellerID).
		Count(&count).Error
	return count, err
}

// ListSellerIDs pages through seller ids in ascending order.
func (r *repository) ListSellerIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.UserSeller{}).
		Where("user_id > ?", afterID).
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}
