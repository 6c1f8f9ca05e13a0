package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a seller listing.
type Product struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	SellerID    uint64          `gorm:"column:seller_id;not null;index"`
	BrandID     *uint64         `gorm:"column:brand_id;index"`
	CategoryID  *uint64         `gorm:"column:category_id;index"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	ImageURL    *string         `gorm:"column:image_url"`
	Seller      *UserSeller     `gorm:"foreignKey:SellerID;references:UserID;constraint:OnDelete:CASCADE"`
	Brand       *Brand          `gorm:"foreignKey:BrandID;constraint:OnDelete:SET NULL"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Reviews     []Review        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
