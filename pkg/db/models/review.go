package models

import "time"

// Review is a buyer's rating of a product. One per (user, product).
type Review struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_reviews_user_product"`
	ProductID uint64    `gorm:"column:product_id;not null;uniqueIndex:idx_reviews_user_product;index"`
	Rating    float64   `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;type:text;not null"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
