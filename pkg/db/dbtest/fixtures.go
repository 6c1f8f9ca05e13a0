package dbtest

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// SeedUser inserts a user with the given role and its role-specific row.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole, username string) models.User {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Name:         username,
		Username:     username,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	switch role {
	case enums.UserRoleSeller:
		if err := conn.Create(&models.UserSeller{UserID: user.ID}).Error; err != nil {
			t.Fatalf("seed seller %s: %v", username, err)
		}
	case enums.UserRoleBuyer:
		buyer := models.UserBuyer{UserID: user.ID, City: "Milano", Address: "Via Roma 1"}
		if err := conn.Create(&buyer).Error; err != nil {
			t.Fatalf("seed buyer %s: %v", username, err)
		}
	}
	return user
}

// SeedProduct inserts a product owned by sellerID.
func SeedProduct(t *testing.T, conn *gorm.DB, sellerID uint64, name, price string, quantity int) models.Product {
	t.Helper()
	product := models.Product{
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

// SeedReview inserts a review without touching the seller rating.
func SeedReview(t *testing.T, conn *gorm.DB, userID, productID uint64, rating float64) models.Review {
	t.Helper()
	review := models.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: "seeded"}
	if err := conn.Create(&review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return review
}
