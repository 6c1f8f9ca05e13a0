package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// Repository persists buyer cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListItems(ctx context.Context, userID uint64) ([]models.CartItem, error)
	FindItem(ctx context.Context, id uint64) (*models.CartItem, error)
	FindByProduct(ctx context.Context, userID, productID uint64) (*models.CartItem, error)
	FindProduct(ctx context.Context, productID uint64) (*models.Product, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id uint64, quantity int) error
	DeleteItem(ctx context.Context, id uint64) error
	Clear(ctx context.Context, userID uint64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListItems returns the buyer's lines with their products, oldest first.
func (r *repository) ListItems(ctx context.Context, userID uint64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindItem(ctx context.Context, id uint64) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Preload("Product").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByProduct(ctx context.Context, userID, productID uint64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindProduct(ctx context.Context, productID uint64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *repository) UpdateQuantity(ctx context.Context, id uint64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		UpdateColumn("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Clear removes every line owned by userID.
func (r *repository) Clear(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
