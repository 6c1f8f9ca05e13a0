package sellers

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// RatingAggregator derives a seller's rating from the reviews on their products.
type RatingAggregator struct{}

// NewRatingAggregator builds a RatingAggregator.
func NewRatingAggregator() *RatingAggregator {
	return &RatingAggregator{}
}

// Recompute returns the mean review rating across every product owned by
// sellerID. A seller without reviews has a rating of 0.
func (a *RatingAggregator) Recompute(ctx context.Context, tx *gorm.DB, sellerID uint64) (float64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction required")
	}
	var avg sql.NullFloat64
	err := tx.WithContext(ctx).
		Table("reviews").
		Select("AVG(reviews.rating)").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("products.seller_id = ?", sellerID).
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("average seller rating: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// Refresh recomputes the rating and stores it on the seller row.
func (a *RatingAggregator) Refresh(ctx context.Context, tx *gorm.DB, sellerID uint64) (float64, error) {
	rating, err := a.Recompute(ctx, tx, sellerID)
	if err != nil {
		return 0, err
	}
	res := tx.WithContext(ctx).
		Model(&models.UserSeller{}).
		Where("user_id = ?", sellerID).
		UpdateColumn("seller_rating", rating)
	if res.Error != nil {
		return 0, fmt.Errorf("update seller rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return rating, nil
}
