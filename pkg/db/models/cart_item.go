package models

import "time"

// CartItem is a pending product/quantity pair owned by a buyer.
type CartItem struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_cart_items_user_product"`
	ProductID uint64    `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_user_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	AddedAt   time.Time `gorm:"column:added_at;autoCreateTime"`
}
