package models

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null"`
	Name         string         `gorm:"column:name;not null"`
	Username     string         `gorm:"column:username;not null;uniqueIndex"`
	AvatarURL    *string        `gorm:"column:avatar_url"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// UserSeller carries seller-only state. SellerRating is derived from reviews.
type UserSeller struct {
	UserID       uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	SellerRating float64   `gorm:"column:seller_rating;not null;default:0"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserBuyer carries buyer-only state and the default shipping address.
type UserBuyer struct {
	UserID      uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	BuyerRating float64   `gorm:"column:buyer_rating;not null;default:0"`
	City        string    `gorm:"column:city;not null;default:''"`
	Address     string    `gorm:"column:address;not null;default:''"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
