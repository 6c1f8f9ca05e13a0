package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// Repository persists orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uint64) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uint64, beforeID uint64, limit int) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uint64, beforeID uint64, limit int) ([]models.Order, error)
	ConfirmPending(ctx context.Context, orderID uint64, at time.Time) (bool, error)
	FindAdvanceable(ctx context.Context, afterID uint64, limit int) ([]models.Order, error)
	UpdateStatusIf(ctx context.Context, orderID uint64, from, to enums.OrderStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order together with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Address").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uint64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Address").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uint64, beforeID uint64, limit int) ([]models.Order, error) {
	return r.list(ctx, "user_id = ?", buyerID, beforeID, limit)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uint64, beforeID uint64, limit int) ([]models.Order, error) {
	return r.list(ctx, "seller_id = ?", sellerID, beforeID, limit)
}

func (r *repository) list(ctx context.Context, owner string, ownerID uint64, beforeID uint64, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Address").
		Where(owner, ownerID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var orders []models.Order
	if err := q.Order("id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ConfirmPending moves a pending order to confirmed. It reports false when the
// order was no longer pending.
func (r *repository) ConfirmPending(ctx context.Context, orderID uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindAdvanceable pages through confirmed and shipped orders in id order.
func (r *repository) FindAdvanceable(ctx context.Context, afterID uint64, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped}).
		Where("confirmed_at IS NOT NULL").
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatusIf moves an order from one status to another only if it is
// still in the expected status.
func (r *repository) UpdateStatusIf(ctx context.Context, orderID uint64, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
