package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// Order is the per-seller order produced by a checkout.
type Order struct {
	ID          uint64            `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint64            `gorm:"column:user_id;not null;index"`
	SellerID    uint64            `gorm:"column:seller_id;not null;index"`
	AddressID   *uint64           `gorm:"column:address_id"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ConfirmedAt *time.Time        `gorm:"column:confirmed_at"`
	Address     *Address          `gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem freezes the product price and name at checkout time.
type OrderItem struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     uint64          `gorm:"column:order_id;not null;index"`
	ProductID   *uint64         `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
