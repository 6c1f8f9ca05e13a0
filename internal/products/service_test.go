package product

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/internal/catalog"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Tx:      db.NewFromConn(conn),
		Catalog: catalogSvc,
		Ratings: sellers.NewRatingAggregator(),
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, conn
}

func strPtr(v string) *string { return &v }

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateResolvesCatalogEntries(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")

	first, err := svc.Create(context.Background(), seller.ID, CreateInput{
		Name:     "  Desk Lamp ",
		Price:    decimal.RequireFromString("19.99"),
		Quantity: 4,
		Brand:    strPtr("Acme"),
		Category: strPtr("Lighting"),
	})
	require.NoError(t, err)
	require.Equal(t, "Desk Lamp", first.Name)
	require.Equal(t, "19.99", first.Price)
	require.Equal(t, "Acme", *first.Brand)
	require.Equal(t, "Lighting", *first.Category)

	_, err = svc.Create(context.Background(), seller.ID, CreateInput{
		Name:     "Floor Lamp",
		Price:    decimal.RequireFromString("49.00"),
		Quantity: 1,
		Brand:    strPtr(" Acme  "),
	})
	require.NoError(t, err)

	var brands int64
	require.NoError(t, conn.Model(&models.Brand{}).Count(&brands).Error)
	require.EqualValues(t, 1, brands)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")

	cases := map[string]CreateInput{
		"blank name":    {Name: "  ", Price: decimal.RequireFromString("1"), Quantity: 1},
		"zero price":    {Name: "x", Price: decimal.Zero, Quantity: 1},
		"huge price":    {Name: "x", Price: decimal.RequireFromString("1000000.01"), Quantity: 1},
		"zero quantity": {Name: "x", Price: decimal.RequireFromString("1"), Quantity: 0},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), seller.ID, input)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}

func TestUpdateRequiresOwner(t *testing.T) {
	svc, conn := newTestService(t)
	owner := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "owner")
	other := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "other")
	product := dbtest.SeedProduct(t, conn, owner.ID, "Chair", "30.00", 2)

	qty := 0
	_, err := svc.Update(context.Background(), other.ID, product.ID, UpdateInput{Quantity: &qty})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	updated, err := svc.Update(context.Background(), owner.ID, product.ID, UpdateInput{
		Quantity: &qty,
		Category: strPtr("Furniture"),
	})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Quantity)
	require.Equal(t, "Chair", updated.Name)
	require.Equal(t, "Furniture", *updated.Category)

	cleared, err := svc.Update(context.Background(), owner.ID, product.ID, UpdateInput{Category: strPtr("")})
	require.NoError(t, err)
	require.Nil(t, cleared.Category)

	_, err = svc.Update(context.Background(), owner.ID, 9999, UpdateInput{})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteCascadesAndRefreshesRating(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "buyer")
	kept := dbtest.SeedProduct(t, conn, seller.ID, "Kept", "10.00", 1)
	gone := dbtest.SeedProduct(t, conn, seller.ID, "Gone", "10.00", 1)
	dbtest.SeedReview(t, conn, buyer.ID, kept.ID, 4)
	dbtest.SeedReview(t, conn, buyer.ID, gone.ID, 2)
	require.NoError(t, conn.Create(&models.CartItem{UserID: buyer.ID, ProductID: gone.ID, Quantity: 1}).Error)

	order := models.Order{
		UserID:   buyer.ID,
		SellerID: seller.ID,
		Total:    decimal.RequireFromString("10.00"),
		Status:   enums.OrderStatusPending,
	}
	require.NoError(t, conn.Omit("Address", "Items").Create(&order).Error)
	require.NoError(t, conn.Create(&models.OrderItem{
		OrderID:     order.ID,
		ProductID:   &gone.ID,
		ProductName: "Gone",
		Quantity:    1,
		Price:       decimal.RequireFromString("10.00"),
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), seller.ID, gone.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Review{}).Where("product_id = ?", gone.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, conn.Model(&models.CartItem{}).Where("product_id = ?", gone.ID).Count(&count).Error)
	require.Zero(t, count)

	var item models.OrderItem
	require.NoError(t, conn.Where("order_id = ?", order.ID).First(&item).Error)
	require.Nil(t, item.ProductID)
	require.Equal(t, "Gone", item.ProductName)

	var row models.UserSeller
	require.NoError(t, conn.First(&row, "user_id = ?", seller.ID).Error)
	require.InDelta(t, 4.0, row.SellerRating, 0.0001)

	err := svc.Delete(context.Background(), seller.ID, gone.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestGetIncludesSellerAndReviewSummary(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	a := dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "a")
	b := dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "b")
	product := dbtest.SeedProduct(t, conn, seller.ID, "Mug", "7.50", 9)
	dbtest.SeedReview(t, conn, a.ID, product.ID, 5)
	dbtest.SeedReview(t, conn, b.ID, product.ID, 2)

	detail, err := svc.Get(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, "Mug", detail.Name)
	require.Equal(t, "seller", detail.Seller.Username)
	require.EqualValues(t, 2, detail.Reviews.TotalCount)
	require.InDelta(t, 3.5, detail.Reviews.AverageRating, 0.0001)

	_, err = svc.Get(context.Background(), 424242)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestSearchFiltersAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	other := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "other")
	ctx := context.Background()

	_, err := svc.Create(ctx, seller.ID, CreateInput{Name: "Red Lamp", Price: decimal.RequireFromString("10"), Quantity: 1, Brand: strPtr("Acme")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, seller.ID, CreateInput{Name: "Blue Lamp", Price: decimal.RequireFromString("20"), Quantity: 1, Brand: strPtr("Lumen")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, CreateInput{Name: "Green lamp", Description: "100% glass", Price: decimal.RequireFromString("30"), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, CreateInput{Name: "Table", Price: decimal.RequireFromString("40"), Quantity: 1})
	require.NoError(t, err)

	res, err := svc.Search(ctx, SearchFilters{Query: "LAMP"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Products, 3)
	require.Equal(t, "Green lamp", res.Products[0].Name)

	res, err = svc.Search(ctx, SearchFilters{Query: "100%"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)

	lo := decimal.RequireFromString("15")
	hi := decimal.RequireFromString("35")
	res, err = svc.Search(ctx, SearchFilters{MinPrice: &lo, MaxPrice: &hi}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)

	res, err = svc.Search(ctx, SearchFilters{Brand: "acm"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	require.Equal(t, "Red Lamp", res.Products[0].Name)

	res, err = svc.Search(ctx, SearchFilters{SellerID: other.ID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)

	page, err := svc.Search(ctx, SearchFilters{}, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Products, 3)
	require.NotEmpty(t, page.NextCursor)
	next, err := svc.Search(ctx, SearchFilters{}, pagination.Params{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Products, 1)
	require.Empty(t, next.NextCursor)
	require.Equal(t, "Red Lamp", next.Products[0].Name)

	_, err = svc.Search(ctx, SearchFilters{MinPrice: &hi, MaxPrice: &lo}, pagination.Params{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
